package hotelsearch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

const analysisSystemPrompt = "You are a hotel review analyst. You score hotels strictly from the reviews you are given and do not invent facts. Return strict JSON only."

const (
	DefaultGeminiModel    = "gemini-2.0-flash"
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultOpenAIModel    = openai.GPT4oMini

	analysisTemperature = 0.2
	analysisTopP        = 0.95
	analysisMaxTokens   = 2048
)

var statusCodeRe = regexp.MustCompile(`(?:status(?:\s+code)?[:=\s]+)(\d{3})`)

type llmFailureClass int

const (
	failureNone llmFailureClass = iota
	failureTimeout
	failureRateLimit
	failureServer
	failureClient
)

type LLMCaller interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

// NewCallerFromEnv builds the configured LLM caller. HOTEL_LLM_PROVIDER
// selects gemini (default), anthropic, or openai.
func NewCallerFromEnv(ctx context.Context) (LLMCaller, error) {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("HOTEL_LLM_PROVIDER")))
	switch provider {
	case "", "gemini", "google":
		return NewGeminiCallerFromEnv(ctx)
	case "anthropic":
		return NewAnthropicCallerFromEnv()
	case "openai":
		return NewOpenAICallerFromEnv()
	default:
		return nil, fmt.Errorf("unknown HOTEL_LLM_PROVIDER %q", provider)
	}
}

type GeminiCaller struct {
	client *genai.Client
	model  string
}

func NewGeminiCallerFromEnv(ctx context.Context) (*GeminiCaller, error) {
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY not configured")
	}
	model := strings.TrimSpace(os.Getenv("HOTEL_LLM_MODEL"))
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiCaller{client: client, model: model}, nil
}

func (g *GeminiCaller) ModelName() string { return g.model }

func (g *GeminiCaller) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	// Gemini has no separate system role; fold the system prompt in.
	contents := []*genai.Content{
		genai.NewContentFromText(analysisSystemPrompt+"\n\n"+prompt, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(analysisTemperature)),
		TopP:            genai.Ptr(float32(analysisTopP)),
		MaxOutputTokens: analysisMaxTokens,
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("empty gemini response")
	}
	return text, nil
}

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicCaller struct {
	messages AnthropicMessager
	model    string
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

func NewAnthropicCallerFromEnv() (*AnthropicCaller, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	model := strings.TrimSpace(os.Getenv("HOTEL_LLM_MODEL"))
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicCaller{messages: newAnthropicClient(apiKey), model: model}, nil
}

func (a *AnthropicCaller) ModelName() string { return a.model }

func (a *AnthropicCaller) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   analysisMaxTokens,
		System:      []anthropic.TextBlockParam{{Text: analysisSystemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(analysisTemperature),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

type OpenAICaller struct {
	client *openai.Client
	model  string
}

func NewOpenAICallerFromEnv() (*OpenAICaller, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY not configured")
	}
	model := strings.TrimSpace(os.Getenv("HOTEL_LLM_MODEL"))
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAICaller{client: openai.NewClient(apiKey), model: model}, nil
}

func (o *OpenAICaller) ModelName() string { return o.model }

func (o *OpenAICaller) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analysisSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty openai response")
	}
	return resp.Choices[0].Message.Content, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

func classifyTransportError(err error) llmFailureClass {
	msg := strings.ToLower(err.Error())
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	m := statusCodeRe.FindStringSubmatch(msg)
	if len(m) == 2 {
		switch {
		case strings.HasPrefix(m[1], "429"):
			return failureRateLimit
		case strings.HasPrefix(m[1], "5"):
			return failureServer
		case strings.HasPrefix(m[1], "4"):
			return failureClient
		}
	}
	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "status 429"):
		return failureRateLimit
	case strings.Contains(msg, "status 4"), strings.Contains(msg, "status code: 4"):
		return failureClient
	default:
		return failureServer
	}
}

func backoffDelay(attempt int) time.Duration {
	switch attempt {
	case 1:
		return 1 * time.Second
	case 2:
		return 2 * time.Second
	default:
		return 4 * time.Second
	}
}
