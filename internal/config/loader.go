// Package config loads process configuration from environment variables.
//
// Structs describe their variables with caarlos0/env tags. A .env file in
// the working directory, when present, is read once before the first load.
package config

import (
	"errors"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into the config struct.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")
	// ErrNilPointer is returned when a nil pointer is provided to Load.
	ErrNilPointer = errors.New("nil pointer provided to config loader")
)

var defaultEnvLoaded sync.Once

// Load parses environment variables into v.
//
//	type Config struct {
//		Schema string `env:"TABVAL_SCHEMA,required"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		// The .env file is optional.
		_ = godotenv.Load()
	})
	return parse(v, env.Options{})
}

// LoadEnvironment parses v from the given variables only, ignoring the
// process environment and any .env file.
func LoadEnvironment[T any](v *T, vars map[string]string) error {
	return parse(v, env.Options{Environment: vars})
}

func parse[T any](v *T, opts env.Options) error {
	if v == nil {
		return ErrNilPointer
	}
	if err := env.ParseWithOptions(v, opts); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}
