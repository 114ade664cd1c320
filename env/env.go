// Package env reads process configuration from environment variables,
// optionally seeded from .env files.
//
// Values are looked up on every call, so a variable changed at runtime (for
// example a debug switch) takes effect on the next read.
//
//	debug, _ := env.Bool("APIERR_RERAISE_UNKNOWN", false)
//	dsn, err := env.String("DATABASE_DSN") // fails with ErrNotSet if absent
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ErrNotSet is returned when a variable is absent and no default was given.
var ErrNotSet = errors.New("env: variable is not set")

// Kind is the type a variable is converted to.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDuration
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindDuration:
		return "duration"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Provider resolves variables through viper's automatic environment binding.
type Provider struct {
	v     *viper.Viper
	files []string

	once    sync.Once
	loadErr error
}

// New creates a Provider. files are .env files loaded on first use; with no
// files, ".env" in the working directory is tried. Missing files are ignored
// and variables already present in the environment are never overridden.
func New(files ...string) *Provider {
	v := viper.New()
	v.AutomaticEnv()
	return &Provider{v: v, files: files}
}

func (p *Provider) load() error {
	p.once.Do(func() {
		if err := godotenv.Load(p.files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
			p.loadErr = fmt.Errorf("env: load dotenv: %w", err)
		}
	})
	return p.loadErr
}

// Get returns name converted to kind. If the variable is absent or empty,
// the first default is returned; without a default Get fails with ErrNotSet.
func (p *Provider) Get(name string, kind Kind, def ...any) (any, error) {
	if err := p.load(); err != nil {
		return nil, err
	}
	raw := p.v.GetString(name)
	if raw == "" {
		if len(def) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrNotSet, name)
		}
		v, err := convert(def[0], kind)
		if err != nil {
			return nil, fmt.Errorf("env: default for %q is not a %s: %w", name, kind, err)
		}
		return v, nil
	}
	v, err := convert(raw, kind)
	if err != nil {
		return nil, fmt.Errorf("env: cannot evaluate %q (value: %s) as %s: %w", name, raw, kind, err)
	}
	return v, nil
}

// String returns name as a string.
func (p *Provider) String(name string, def ...string) (string, error) {
	v, err := p.Get(name, KindString, anys(def)...)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Bool returns name as a boolean. "1", "t", "true" and "True" are true.
func (p *Provider) Bool(name string, def ...bool) (bool, error) {
	v, err := p.Get(name, KindBool, anys(def)...)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Int returns name as an int.
func (p *Provider) Int(name string, def ...int) (int, error) {
	v, err := p.Get(name, KindInt, anys(def)...)
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Float returns name as a float64.
func (p *Provider) Float(name string, def ...float64) (float64, error) {
	v, err := p.Get(name, KindFloat, anys(def)...)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// Duration returns name parsed with time.ParseDuration semantics.
func (p *Provider) Duration(name string, def ...time.Duration) (time.Duration, error) {
	v, err := p.Get(name, KindDuration, anys(def)...)
	if err != nil {
		return 0, err
	}
	return v.(time.Duration), nil
}

func convert(v any, kind Kind) (any, error) {
	switch kind {
	case KindString:
		return cast.ToStringE(v)
	case KindBool:
		return cast.ToBoolE(v)
	case KindInt:
		return cast.ToIntE(v)
	case KindFloat:
		return cast.ToFloat64E(v)
	case KindDuration:
		return cast.ToDurationE(v)
	default:
		return nil, fmt.Errorf("env: unsupported kind %s", kind)
	}
}

func anys[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

var std = New()

// Get reads name from the process environment.
func Get(name string, kind Kind, def ...any) (any, error) { return std.Get(name, kind, def...) }

// String reads name from the process environment as a string.
func String(name string, def ...string) (string, error) { return std.String(name, def...) }

// Bool reads name from the process environment as a boolean.
func Bool(name string, def ...bool) (bool, error) { return std.Bool(name, def...) }

// Int reads name from the process environment as an int.
func Int(name string, def ...int) (int, error) { return std.Int(name, def...) }

// Float reads name from the process environment as a float64.
func Float(name string, def ...float64) (float64, error) { return std.Float(name, def...) }

// Duration reads name from the process environment as a time.Duration.
func Duration(name string, def ...time.Duration) (time.Duration, error) {
	return std.Duration(name, def...)
}
