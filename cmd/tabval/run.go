package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carlodf/tabval/coerce"
	"github.com/carlodf/tabval/connector"
	"github.com/carlodf/tabval/internal/logger"
	"github.com/carlodf/tabval/opener"
	"github.com/carlodf/tabval/sink"
	"github.com/carlodf/tabval/transform"
	"github.com/carlodf/tabval/validate"
)

var (
	s3Once sync.Once
	s3Err  error
)

// createOutput opens the -output file.
var createOutput = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func run(ctx context.Context, cfg Config, stdout, stderr io.Writer) (err error) {
	log, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	start := time.Now()

	if len(cfg.Sources) == 0 {
		return errNoSources
	}
	comma, err := cfg.delimiter()
	if err != nil {
		return err
	}

	v, err := loadValidator(cfg.Schema, log)
	if err != nil {
		return err
	}

	if err := registerS3(ctx, cfg); err != nil {
		return err
	}
	ops, err := opener.FromSpecs(cfg.Sources...)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		return errNoSources
	}
	log.Info("run started", logger.Count("sources", len(ops)), logger.Count("fields", len(v.Schema())))

	out := stdout
	if cfg.Output != "" {
		var f io.WriteCloser
		f, err = createOutput(cfg.Output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close output: %w", cerr)
			}
		}()
		out = f
	}

	mux := connector.NewMuxReader(ctx, ops, connector.WithLogger(log))
	dec := transform.NewCSVDecoder(transform.CSVDecoderOptions{Comma: comma})
	rows, err := transform.NewDecodeMapTransform[*validate.Record](dec, log).Transform(ctx, mux, validate.ExtractRecord)
	if err != nil {
		return err
	}
	it := v.Validate(validate.FromTransform(rows))
	defer it.Close()

	w := sink.NewJSONLines(out)
	if err := w.Drain(it); err != nil {
		log.Error("run failed", logger.Count("records", w.Count()), logger.Error(err))
		return err
	}
	log.Info("run finished", logger.Count("records", w.Count()), logger.Duration(time.Since(start)))
	return nil
}

func newLogger(cfg Config, w io.Writer) (*slog.Logger, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format := logger.Format(cfg.LogFormat)
	if format == "" {
		format = logger.FormatJSON
	}
	if format != logger.FormatJSON && format != logger.FormatText {
		return nil, fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}
	return logger.New(
		logger.WithLevel(level),
		logger.WithFormat(format),
		logger.WithOutput(w),
		logger.WithAttr(logger.Component("tabval"), logger.RunID(uuid.NewString())),
	), nil
}

// loadValidator builds a validator from a schema file. Without a file
// every record passes through unchanged.
func loadValidator(path string, log *slog.Logger) (*validate.Validator, error) {
	if path == "" {
		log.Warn("no schema configured, records pass through unchanged")
		return validate.New(nil, nil, validate.WithLogger(log)), nil
	}
	doc, err := validate.LoadSchemaFile(path)
	if err != nil {
		return nil, err
	}
	fks, err := doc.ForeignKeys(coerce.Default)
	if err != nil {
		return nil, err
	}
	return validate.New(doc.Fields, fks, validate.WithLogger(log)), nil
}

// registerS3 installs the s3 opener the first time an s3 source is seen.
func registerS3(ctx context.Context, cfg Config) error {
	need := false
	for _, spec := range cfg.Sources {
		if opener.DetectScheme(spec) == opener.SchemeS3 {
			need = true
			break
		}
	}
	if !need {
		return nil
	}
	s3Once.Do(func() {
		client, err := opener.NewS3Client(ctx, cfg.S3)
		if err != nil {
			s3Err = err
			return
		}
		s3Err = opener.Register(opener.SchemeS3, opener.NewS3OpenerFactory(ctx, client))
	})
	return s3Err
}
