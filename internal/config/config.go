// Package config loads the cnl configuration file.
//
// The file is CUE, checked against a closed schema so misspelled fields
// are rejected. Every field has a default; an absent file yields
// Default().
//
//	catalog:  "tactics"
//	database: "cnl.db"
//	prediction: rounds: 16
//	server: addr: ":9090"
//	log: {level: "debug", file: "cnl.log"}
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/cnl/internal/engine"
)

// FileName is the config file looked up in the working directory.
const FileName = "cnl.cue"

const schemaFile = "config.schema.cue"

var schemaSource = fmt.Sprintf(`
catalog:  string | *""
database: string | *""
prediction: close({
	rounds:      int & >0 | *%d
	step_budget: int & >0 | *%d
})
server: close({
	addr: string | *":8080"
})
log: close({
	level: "debug" | "info" | "warn" | "error" | *"info"
	file:  string | *""
})
`, engine.DefaultRounds, engine.DefaultStepBudget)

// Config is the decoded configuration.
type Config struct {
	// Catalog is a directory of tactic catalogs loaded on top of the
	// built-in tactics. Empty means built-ins only.
	Catalog string `json:"catalog"`

	// Database is the transcript store path. Empty disables persistence.
	Database string `json:"database"`

	Prediction Prediction `json:"prediction"`
	Server     Server     `json:"server"`
	Log        Log        `json:"log"`
}

type Prediction struct {
	Rounds     int `json:"rounds"`
	StepBudget int `json:"step_budget"`
}

type Server struct {
	Addr string `json:"addr"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// EngineOptions converts the prediction settings to engine options.
func (c Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithRounds(c.Prediction.Rounds),
		engine.WithStepBudget(c.Prediction.StepBudget),
	}
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg, err := decode(cuecontext.New().CompileString("{}"))
	if err != nil {
		panic(fmt.Sprintf("config: default: %v", err))
	}
	return cfg
}

// Load reads the config file at path. A path of "" loads FileName from
// the working directory if it exists and returns Default() otherwise.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = FileName
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, content)
}

// Parse validates and decodes config source. filename is used in error
// positions.
func Parse(filename string, content []byte) (Config, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(content, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return Config{}, fmt.Errorf("config %s: %s", filename, cueerrors.Details(err, nil))
	}
	return decode(value)
}

func decode(value cue.Value) (Config, error) {
	schema := value.Context().CompileString("close({"+schemaSource+"})", cue.Filename(schemaFile))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("config schema: %w", err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("invalid config: %s", cueerrors.Details(err, nil))
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
