// Package config loads problem files. A problem file names the objective,
// the constraints and the solver, output and log settings; YAML, JSON and
// TOML are recognised by extension and every key can be overridden from
// the environment with the SIMPLEX_ prefix (SIMPLEX_OUTPUT_PRECISION=2).
package config

import (
	"fmt"
	"strings"

	"github.com/costela/simplex"
	"github.com/costela/simplex/render"
	"github.com/costela/simplex/tableau"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "SIMPLEX"

// Problem is the content of a problem file.
type Problem struct {
	Name        string       `mapstructure:"name"        json:"name"`
	Sense       string       `mapstructure:"sense"       json:"sense"       validate:"required,sense"`
	Objective   string       `mapstructure:"objective"   json:"objective"   validate:"required"`
	Constraints []Constraint `mapstructure:"constraints" json:"constraints" validate:"dive"`
	Solver      SolverConfig `mapstructure:"solver"      json:"solver"`
	Output      OutputConfig `mapstructure:"output"      json:"output"`
	Log         LogConfig    `mapstructure:"log"         json:"log"`
}

// Constraint is one named constraint such as "2x + 3y <= 12".
type Constraint struct {
	Name string `mapstructure:"name" json:"name"`
	Expr string `mapstructure:"expr" json:"expr" validate:"required"`
}

type SolverConfig struct {
	MaxIterations int     `mapstructure:"max_iterations" json:"max_iterations" validate:"min=0"`
	Epsilon       float64 `mapstructure:"epsilon"        json:"epsilon"        validate:"min=0"`
}

type OutputConfig struct {
	Precision int  `mapstructure:"precision" json:"precision" validate:"min=0,max=16"`
	JSON      bool `mapstructure:"json"      json:"json"`
	Quiet     bool `mapstructure:"quiet"     json:"quiet"`
}

// LogConfig selects log level, format and an optional rotated log file.
type LogConfig struct {
	Level      string `mapstructure:"level"       json:"level"       validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format"      json:"format"      validate:"omitempty,oneof=json text"`
	File       string `mapstructure:"file"        json:"file"`
	MaxSize    int    `mapstructure:"max_size"    json:"max_size"    validate:"min=0"` // MB
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups" validate:"min=0"`
	MaxAge     int    `mapstructure:"max_age"     json:"max_age"     validate:"min=0"` // days
	Compress   bool   `mapstructure:"compress"    json:"compress"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("sense", ValidateSense); err != nil {
		panic(err)
	}

	return v
}

// ValidateSense is the "sense" validation tag: the field must be a
// direction accepted by simplex.ParseDirection.
func ValidateSense(fl validator.FieldLevel) bool {
	_, err := simplex.ParseDirection(fl.Field().String())
	return err == nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("name", "")
	v.SetDefault("sense", "max")
	v.SetDefault("objective", "")
	v.SetDefault("solver.max_iterations", tableau.DefaultMaxIterations)
	v.SetDefault("solver.epsilon", tableau.DefaultEpsilon)
	v.SetDefault("output.precision", render.DefaultPrecision)
	v.SetDefault("output.json", false)
	v.SetDefault("output.quiet", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads and validates the problem file at path.
func Load(path string) (*Problem, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}

	return decode(v)
}

// LoadSettings reads the file at path like Load but only validates the
// solver, output and log sections. The HTTP server uses it, since
// problems arrive with each request.
func LoadSettings(path string) (*Problem, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}

	p := &Problem{}
	if err := v.Unmarshal(p); err != nil {
		return nil, fmt.Errorf("unmarshal config error: %w", err)
	}

	for _, section := range []any{p.Solver, p.Output, p.Log} {
		if err := validate.Struct(section); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return p, nil
}

// Defaults returns a problem holding only defaults and environment
// overrides. It fails validation until an objective is set.
func Defaults() (*Problem, error) {
	v := newViper()

	p := &Problem{}
	if err := v.Unmarshal(p); err != nil {
		return nil, fmt.Errorf("unmarshal config error: %w", err)
	}

	return p, nil
}

func decode(v *viper.Viper) (*Problem, error) {
	p := &Problem{}
	if err := v.Unmarshal(p); err != nil {
		return nil, fmt.Errorf("unmarshal config error: %w", err)
	}

	p.Sense = strings.ToLower(strings.TrimSpace(p.Sense))

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Validate checks p against its struct tags.
func (p *Problem) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// Model builds the model described by p. Constraints keep their file
// order; variables are added in alphabetical order of the objective
// first, then in order of appearance in the constraints.
func (p *Problem) Model(opts ...simplex.Option) (*simplex.Model, error) {
	dir, err := simplex.ParseDirection(p.Sense)
	if err != nil {
		return nil, err
	}

	opts = append([]simplex.Option{
		simplex.WithEpsilon(p.Solver.Epsilon),
		simplex.WithMaxIterations(p.Solver.MaxIterations),
	}, opts...)

	model, err := simplex.NewModel(p.Name, dir, opts...)
	if err != nil {
		return nil, err
	}

	if err := model.SetObjective(p.Objective); err != nil {
		return nil, err
	}

	for i, c := range p.Constraints {
		if err := model.AddExpressionConstraint(c.Name, c.Expr); err != nil {
			return nil, fmt.Errorf("constraint %d: %w", i+1, err)
		}
	}

	return model, nil
}
