package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var (
	ErrUnknownModel = errors.New("unknown model")
	ErrEmptyReply   = errors.New("model returned no choices")
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the OpenAI-compatible endpoint that Ollama serves under
// /v1. Retries are disabled: one turn makes at most one attempt.
type Client struct {
	cfg Config
	sdk openai.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	opts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		key = "ollama"
	}
	opts = append(opts, option.WithAPIKey(key))
	return &Client{cfg: cfg, sdk: openai.NewClient(opts...)}
}

// Send runs one chat completion and returns the first choice's text.
func (c *Client) Send(ctx context.Context, model string, messages []Message) (string, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return "", errors.New("model is required")
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toSDKMessages(messages),
	}
	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", wrapRequestError(err, model)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w model=%s", ErrEmptyReply, model)
	}
	return resp.Choices[0].Message.Content, nil
}

// ListModels returns the endpoint's model identifiers, sorted.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	page, err := c.sdk.Models.List(ctx)
	if err != nil {
		return nil, wrapRequestError(err, "")
	}
	out := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		if id := strings.TrimSpace(m.ID); id != "" {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

// CheckModel returns ErrUnknownModel when name is not served by the
// endpoint.
func (c *Client) CheckModel(ctx context.Context, name string) error {
	models, err := c.ListModels(ctx)
	if err != nil {
		return err
	}
	return FindModel(models, name)
}

func FindModel(models []string, name string) error {
	name = strings.TrimSpace(name)
	for _, m := range models {
		if m == name {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownModel, name)
}

func toSDKMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func wrapRequestError(err error, model string) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if model != "" {
			return fmt.Errorf("model endpoint returned status %d model=%s: %w", apiErr.StatusCode, model, err)
		}
		return fmt.Errorf("model endpoint returned status %d: %w", apiErr.StatusCode, err)
	}
	return fmt.Errorf("model endpoint unreachable: %w", err)
}
