package main

import (
	"errors"
	"flag"
	"fmt"
	"unicode/utf8"

	"github.com/carlodf/tabval/opener"
)

// Config is read from TABVAL_* variables, then overridden by flags.
type Config struct {
	Schema    string          `env:"TABVAL_SCHEMA"`
	Sources   []string        `env:"TABVAL_SOURCES" envSeparator:","`
	Comma     string          `env:"TABVAL_COMMA" envDefault:","`
	Output    string          `env:"TABVAL_OUTPUT"`
	LogLevel  string          `env:"TABVAL_LOG_LEVEL" envDefault:"info"`
	LogFormat string          `env:"TABVAL_LOG_FORMAT" envDefault:"json"`
	S3        opener.S3Config `envPrefix:"TABVAL_S3_"`
}

var errNoSources = errors.New("no input sources")

func (c *Config) applyFlags(args []string) error {
	fs := flag.NewFlagSet("tabval", flag.ContinueOnError)
	fs.StringVar(&c.Schema, "schema", c.Schema, "schema file (YAML or JSON)")
	fs.StringVar(&c.Output, "o", c.Output, "output file; stdout when empty")
	fs.StringVar(&c.Comma, "comma", c.Comma, `field delimiter, one character or "tab"`)
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "json or text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		c.Sources = fs.Args()
	}
	return nil
}

// delimiter returns the configured field delimiter.
func (c Config) delimiter() (rune, error) {
	switch c.Comma {
	case "":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(c.Comma)
	if r == utf8.RuneError || size != len(c.Comma) {
		return 0, fmt.Errorf("invalid delimiter %q: want a single character", c.Comma)
	}
	return r, nil
}
