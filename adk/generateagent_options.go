package adk

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/metalagman/imgto3d"
)

var optionsValidator = validator.New()

type GenerateAgentOptions struct {
	name        string `validate:"required"`
	description string `validate:"required"`
	interpreter string `validate:"required"`
	script      string `validate:"required"`
	outputDir   string
	credential  string
	useTTY      bool
	timeout     time.Duration `validate:"gte=0"`
	invokeOpts  []imgto3d.InvokeOption
}

type OptGenerateAgentOptionsSetter func(o *GenerateAgentOptions)

func NewGenerateAgentOptions(
	name string,
	description string,
	interpreter string,
	script string,
	options ...OptGenerateAgentOptionsSetter,
) GenerateAgentOptions {
	o := getDefaultGenerateAgentOptions()

	o.name = name
	o.description = description
	o.interpreter = interpreter
	o.script = script

	for _, opt := range options {
		opt(&o)
	}

	return o
}

// WithGenerateAgentOutputDir sets the directory the model is written to.
func WithGenerateAgentOutputDir(dir string) OptGenerateAgentOptionsSetter {
	return func(o *GenerateAgentOptions) { o.outputDir = dir }
}

// WithGenerateAgentCredential sets the API key handed to the connector.
func WithGenerateAgentCredential(key string) OptGenerateAgentOptionsSetter {
	return func(o *GenerateAgentOptions) { o.credential = key }
}

func WithGenerateAgentUseTTY(enabled bool) OptGenerateAgentOptionsSetter {
	return func(o *GenerateAgentOptions) { o.useTTY = enabled }
}

func WithGenerateAgentTimeout(d time.Duration) OptGenerateAgentOptionsSetter {
	return func(o *GenerateAgentOptions) { o.timeout = d }
}

// WithGenerateAgentInvokeOptions appends options passed to every Invoke call.
func WithGenerateAgentInvokeOptions(opts ...imgto3d.InvokeOption) OptGenerateAgentOptionsSetter {
	return func(o *GenerateAgentOptions) { o.invokeOpts = append(o.invokeOpts, opts...) }
}

// Validate checks the mandatory fields. The struct fields are unexported, so
// each one is validated as a variable.
func (o *GenerateAgentOptions) Validate() error {
	checks := []struct {
		field string
		value any
		tag   string
	}{
		{"name", o.name, "required"},
		{"description", o.description, "required"},
		{"interpreter", o.interpreter, "required"},
		{"script", o.script, "required"},
		{"timeout", o.timeout, "gte=0"},
	}

	for _, c := range checks {
		if err := optionsValidator.Var(c.value, c.tag); err != nil {
			return fmt.Errorf("%s: %w", c.field, err)
		}
	}

	return nil
}

func getDefaultGenerateAgentOptions() GenerateAgentOptions {
	return GenerateAgentOptions{
		outputDir: ".",
		useTTY:    false,
	}
}
