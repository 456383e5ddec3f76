package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultModel   = "gpt-4o-mini"
	requestTimeout = 8 * time.Second
)

const systemPrompt = "You are a personal finance advisor. Answer in a few short, " +
	"concrete paragraphs grounded in the numbers provided. Do not invent figures."

// OpenAI is the Provider backed by the OpenAI chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI builds the provider. An empty model selects the default.
func NewOpenAI(apiKey, model string) *OpenAI {
	if model == "" {
		model = defaultModel
	}
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (o *OpenAI) Name() string { return "openai" }

// Advise asks the model for advice over the snapshot.
func (o *OpenAI) Advise(ctx context.Context, snap Snapshot, question string) (Advice, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(snap, question)),
		},
		MaxTokens: openai.Int(500),
	})
	if err != nil {
		return Advice{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return Advice{}, fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return Advice{Text: resp.Choices[0].Message.Content, Provider: o.Name()}, nil
}

func buildPrompt(snap Snapshot, question string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Net worth: %s\n", formatCents(snap.NetWorthCents))
	fmt.Fprintf(&b, "Monthly income: %s\n", formatCents(snap.MonthlyIncomeCents))
	fmt.Fprintf(&b, "Monthly spending: %s\n", formatCents(snap.MonthlySpendCents))
	fmt.Fprintf(&b, "Savings rate: %.0f%%\n", snap.SavingsRate*100)
	fmt.Fprintf(&b, "Health score: %d (%s)\n", snap.HealthScore, snap.HealthGrade)
	if len(snap.TopCategories) > 0 {
		b.WriteString("Top spending categories:\n")
		for _, c := range snap.TopCategories {
			fmt.Fprintf(&b, "  %s: %s\n", c.Category, formatCents(c.Cents))
		}
	}
	if question != "" {
		fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	} else {
		b.WriteString("\nGive practical advice to improve this financial picture.\n")
	}
	return b.String()
}
