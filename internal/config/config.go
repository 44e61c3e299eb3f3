// Package config loads the settings of a mining run.
//
// Settings come from three layers, each overriding the previous one: the
// defaults of Default, an optional YAML file, and command-line flags. The
// result is validated as a whole before any input is read.
//
// Example file:
//
//	input: data/retail
//	output: output
//	min_support: 0.05
//	epsilon: 0.1
//	delta: 0.1
//	vc_constant: 1
//	seed: 42
//	log_level: debug
//	log_format: json
//	metrics_file: run.prom
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"fpm.lopezb.com/internal/fpm"
	"fpm.lopezb.com/internal/fpm/sampling"
)

// Config holds every setting of a run.
type Config struct {
	// Input is the directory of transaction files.
	Input string `yaml:"input" validate:"required"`
	// Output is the directory reports are written to.
	Output string `yaml:"output" validate:"required"`

	// MinSupport is the minimum-support fraction. It has no default.
	MinSupport *float64 `yaml:"min_support" validate:"required,gte=0,lt=1"`

	Epsilon    float64 `yaml:"epsilon" validate:"gt=0,lt=1"`
	Delta      float64 `yaml:"delta" validate:"gt=0,lt=1"`
	VCConstant float64 `yaml:"vc_constant" validate:"gt=0"`
	// Seed fixes the sampling generator; 0 draws a random seed.
	Seed uint64 `yaml:"seed"`

	// Verify checks the tree's invariants after it is built.
	Verify bool `yaml:"verify"`

	LogLevel  string `yaml:"log_level" validate:"oneof=trace debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`
	// MetricsFile, when set, receives the run metrics in the Prometheus
	// text format.
	MetricsFile string `yaml:"metrics_file"`
}

// Default returns the settings used when neither a file nor a flag says
// otherwise.
func Default() Config {
	p := sampling.DefaultParams()
	return Config{
		Output:     "output",
		Epsilon:    p.Epsilon,
		Delta:      p.Delta,
		VCConstant: p.C,
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected. The
// result is not validated; flags may still fill it in.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, pkgerrors.Wrap(err, "read config")
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, pkgerrors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// Params returns the sampling parameters.
func (c Config) Params() sampling.Params {
	return sampling.Params{Epsilon: c.Epsilon, Delta: c.Delta, C: c.VCConstant}
}

// Support returns the minimum support, 0 when unset.
func (c Config) Support() float64 {
	if c.MinSupport == nil {
		return 0
	}
	return *c.MinSupport
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their YAML keys, the names users write.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks every setting. The first violation is returned as an
// *fpm.ValidationError.
func (c Config) Validate() error {
	err := validatorInstance().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return &fpm.ValidationError{
		Field:  fe.Field(),
		Value:  fieldValue(fe),
		Reason: reason(fe),
	}
}

func fieldValue(fe validator.FieldError) any {
	v := reflect.ValueOf(fe.Value())
	if !v.IsValid() {
		return "<unset>"
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "<unset>"
		}
		return v.Elem().Interface()
	}
	return fe.Value()
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	default:
		return fmt.Sprintf("fails %s=%s", fe.Tag(), fe.Param())
	}
}
