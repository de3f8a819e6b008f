package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaSrc string

// Config is the decoded configuration.
type Config struct {
	Database    string      `json:"database"`
	Namespace   string      `json:"namespace"`
	Cardinality Cardinality `json:"cardinality"`
	Listeners   Listeners   `json:"listeners"`
}

// Cardinality holds the default vertex property cardinality and per-key
// overrides, as "single", "set" or "list".
type Cardinality struct {
	Default string            `json:"default"`
	Keys    map[string]string `json:"keys"`
}

// Listeners toggles built-in listeners.
type Listeners struct {
	Log bool `json:"log"`
}

// Error is a configuration error with its CUE source position.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Default returns the configuration implied by the schema alone.
func Default() Config {
	cfg, err := decode(cuecontext.New(), nil, "")
	if err != nil {
		// The embedded schema is fixed; failing here is a build defect.
		panic(fmt.Sprintf("config: default: %v", err))
	}
	return cfg
}

// Load reads and validates a CUE configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return decode(cuecontext.New(), data, path)
}

// Parse validates configuration source. filename is used in error positions.
func Parse(src []byte, filename string) (Config, error) {
	return decode(cuecontext.New(), src, filename)
}

func decode(ctx *cue.Context, src []byte, filename string) (Config, error) {
	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := def
	if src != nil {
		file := ctx.CompileBytes(src, cue.Filename(filename))
		if err := file.Err(); err != nil {
			return Config{}, formatCUEError(err)
		}
		v = def.Unify(file)
	}

	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Config{}, formatCUEError(err)
	}
	if cfg.Cardinality.Keys == nil {
		cfg.Cardinality.Keys = map[string]string{}
	}
	return cfg, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	field := "config"
	if path := first.Path(); len(path) > 0 {
		field = path[len(path)-1]
	}
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &Error{
			Field:   field,
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return &Error{Field: field, Message: first.Error()}
}
