package llm

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/quillml/quill/internal/domain"
	"github.com/quillml/quill/internal/ports"
)

var _ ports.LMP = (*Program)(nil)

// Program is a language-model program: a prompt template bound to an LLM
// client, invocable as a function of a datapoint's input.
//
// Named inputs execute the template with their field map, so a template can
// reference fields directly ({{.country}}). Positional inputs execute with
// the argument slice ({{index . 0}}).
//
// When the "n" parameter requests multiple samples, Invoke issues one
// provider call per sample and returns a slice of outputs; otherwise it
// returns the single response string.
type Program struct {
	name   string
	tmpl   *template.Template
	system string
	client ports.LLMClient
}

// ProgramConfig declares a program's prompt.
type ProgramConfig struct {
	// Name identifies the program in logs and run records.
	Name string
	// Template is the prompt template, rendered against the input.
	Template string
	// System optionally provides a system prompt sent with every request.
	System string
}

// NewProgram compiles the prompt template and binds it to the client.
// Missing template fields fail at invocation rather than rendering blank,
// so typos in suite inputs surface as errors.
func NewProgram(client ports.LLMClient, config ProgramConfig) (*Program, error) {
	if client == nil {
		return nil, fmt.Errorf("program client cannot be nil")
	}
	if config.Name == "" {
		return nil, fmt.Errorf("program name cannot be empty")
	}
	if config.Template == "" {
		return nil, fmt.Errorf("program %q: template cannot be empty", config.Name)
	}

	tmpl, err := template.New(config.Name).Option("missingkey=error").Parse(config.Template)
	if err != nil {
		return nil, fmt.Errorf("program %q: invalid template: %w", config.Name, err)
	}

	return &Program{
		name:   config.Name,
		tmpl:   tmpl,
		system: config.System,
		client: client,
	}, nil
}

// Name returns the program's identifier.
func (p *Program) Name() string { return p.name }

// Invoke renders the prompt for one input and requests completions from
// the bound client. The returned value is a single string for one sample
// or a []any with one string per sample.
func (p *Program) Invoke(ctx context.Context, input domain.Input, params domain.APIParams) (any, error) {
	prompt, err := p.render(input)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", p.name, err)
	}

	options := p.requestOptions(params)

	samples := params.Samples()
	if samples == 1 {
		response, err := p.client.Complete(ctx, prompt, options)
		if err != nil {
			return nil, fmt.Errorf("program %q: %w", p.name, err)
		}
		return response, nil
	}

	outputs := make([]any, 0, samples)
	for range samples {
		response, err := p.client.Complete(ctx, prompt, options)
		if err != nil {
			return nil, fmt.Errorf("program %q: %w", p.name, err)
		}
		outputs = append(outputs, response)
	}
	return outputs, nil
}

// render executes the prompt template against the input's natural shape.
func (p *Program) render(input domain.Input) (string, error) {
	var data any
	switch input.Kind() {
	case domain.KindNamed:
		data = input.Fields()
	case domain.KindPositional:
		data = input.Args()
	default:
		return "", fmt.Errorf("%w: input is unset", domain.ErrInvalidInput)
	}

	var sb strings.Builder
	if err := p.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), nil
}

// requestOptions converts API parameters into provider request options.
// The sample count is consumed by Invoke's loop, so it is stripped here;
// the program's system prompt applies unless the parameters override it.
func (p *Program) requestOptions(params domain.APIParams) map[string]any {
	options := make(map[string]any, len(params)+1)
	for k, v := range params {
		if k == domain.SamplesKey {
			continue
		}
		options[k] = v
	}

	if p.system != "" {
		if _, ok := options["system"]; !ok {
			options["system"] = p.system
		}
	}

	return options
}
