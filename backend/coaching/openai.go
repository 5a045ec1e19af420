package coaching

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Generation settings of the coaching completion.
const (
	DefaultModel = "gpt-4o-mini"
	maxTokens    = 300
	temperature  = 0.7
)

const systemPrompt = "You are Francine, an expert AI fitness coach. Provide personalized, encouraging, " +
	"and actionable fitness advice based on user data. Be specific, motivating, and focus on " +
	"sustainable progress. Keep responses concise (150-200 words)."

// defaultAdvice stands in for an empty completion.
const defaultAdvice = "Keep up the great work! Stay consistent with your routine."

// Generator turns a coaching prompt into advice text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OpenAIGenerator calls the OpenAI chat completions API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(apiKey, model string) *OpenAIGenerator {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIGenerator{client: openai.NewClient(apiKey), model: model}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	if resp.Choices[0].Message.Content == "" {
		return defaultAdvice, nil
	}
	return resp.Choices[0].Message.Content, nil
}
