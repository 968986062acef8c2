// Command quill runs a declarative evaluation suite against an LLM provider
// and prints per-criterion mean scores.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/quillml/quill/infrastructure/llm"
	"github.com/quillml/quill/infrastructure/middleware"
	"github.com/quillml/quill/internal/application"
)

func main() {
	var (
		suitePath     = flag.String("suite", "", "Path to the suite YAML file (required)")
		promptTmpl    = flag.String("prompt", "", "Prompt template, overrides the suite's prompt section")
		systemPrompt  = flag.String("system", "", "System prompt, overrides the suite's prompt section")
		provider      = flag.String("provider", "openai", "LLM provider: openai, anthropic, or google")
		model         = flag.String("model", "", "Model name (defaults to the provider's default)")
		workers       = flag.Int("workers", 1, "Number of concurrent datapoint workers")
		samples       = flag.Int("samples", 1, "Generations per datapoint")
		verbose       = flag.Bool("verbose", false, "Report per-datapoint progress")
		preserveOrder = flag.Bool("preserve-order", false, "Accumulate outputs in dataset order")
		timeout       = flag.Duration("timeout", 30*time.Second, "Per-request timeout")
		rps           = flag.Float64("rps", 0, "Requests per second limit, 0 disables rate limiting")
		withMetrics   = flag.Bool("metrics", false, "Register Prometheus metrics for the run")
	)
	flag.Parse()

	if *suitePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()

	loader, err := application.NewSuiteLoader(application.NewDefaultCriterionRegistry())
	if err != nil {
		log.Fatalf("Failed to create suite loader: %v", err)
	}

	suite, err := loader.LoadFromFile(ctx, *suitePath)
	if err != nil {
		log.Fatalf("Failed to load suite: %v", err)
	}

	template, system := *promptTmpl, *systemPrompt
	if template == "" {
		template = suite.PromptTemplate
	}
	if system == "" {
		system = suite.SystemPrompt
	}
	if template == "" {
		log.Fatal("No prompt template: pass -prompt or add a prompt section to the suite")
	}

	var collector *middleware.PrometheusMetrics
	if *withMetrics {
		collector = middleware.NewPrometheusMetrics()
	}

	client, err := buildClient(*provider, *model, *timeout, *rps, collector)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	program, err := llm.NewProgram(client, llm.ProgramConfig{
		Name:     suite.Name,
		Template: template,
		System:   system,
	})
	if err != nil {
		log.Fatalf("Failed to create program: %v", err)
	}

	var opts []application.Option
	if collector != nil {
		opts = append(opts, application.WithMetrics(collector))
	}

	evaluation, err := suite.NewEvaluation(opts...)
	if err != nil {
		log.Fatalf("Failed to create evaluation: %v", err)
	}

	run, err := evaluation.Run(ctx, program, application.RunConfig{
		Workers:             *workers,
		Verbose:             *verbose,
		SamplesPerDatapoint: *samples,
		PreserveOrder:       *preserveOrder,
	})
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	fmt.Printf("Evaluation %q completed\n", suite.Name)
	fmt.Printf("- Run ID: %s\n", run.ID)
	fmt.Printf("- Model: %s\n", client.GetModel())
	fmt.Printf("- Datapoints: %d\n", len(run.Dataset))
	fmt.Printf("- Outputs: %d\n", len(run.Outputs))
	fmt.Printf("- Duration: %s\n", run.Duration().Round(time.Millisecond))

	for _, name := range suite.Criteria.Names() {
		if mean, ok := run.Mean(name); ok {
			fmt.Printf("- %s: %.4f\n", name, mean)
		}
	}
}

// buildClient assembles the provider client with the middleware the flags
// request. Middleware order matters: rate limiting runs outermost so paced
// requests do not burn their timeout budget while queued.
func buildClient(provider, model string, timeout time.Duration, rps float64, collector *middleware.PrometheusMetrics) (*llm.Client, error) {
	apiKey := os.Getenv(apiKeyEnv(provider))
	if apiKey == "" {
		return nil, fmt.Errorf("%s is not set", apiKeyEnv(provider))
	}

	if model == "" {
		model = defaultModel(provider)
	}

	var chain []llm.Middleware
	if rps > 0 {
		chain = append(chain, llm.RateLimitMiddleware(rate.Limit(rps), 1))
	}
	if timeout > 0 {
		chain = append(chain, llm.TimeoutMiddleware(llm.ValidateTimeout(timeout)))
	}
	if collector != nil {
		chain = append(chain, llm.MetricsMiddleware(collector))
	}

	return llm.NewClient(provider, llm.ClientConfig{
		APIKey:     apiKey,
		Model:      model,
		Middleware: chain,
	})
}

// apiKeyEnv names the environment variable holding the provider's API key.
func apiKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "google":
		return "GOOGLE_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// defaultModel returns the provider's default model name.
func defaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return llm.AnthropicDefaultModel
	case "google":
		return llm.GoogleDefaultModel
	default:
		return llm.OpenAIDefaultModel
	}
}
