package commentary

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type Config struct {
	// Token authenticates against the completion endpoint.
	Token string
	// BaseURL overrides the api endpoint, e.g. to route through
	// openrouter.
	BaseURL string
	Model   string
	// Prompt is a format string receiving the artist name.
	Prompt  string
	Timeout time.Duration
	Debug   bool
}

const defaultPrompt = "Provide a concise summary of %s's tax problems, including key dates, fines, amounts, or relevant penalties."

// Client generates the commentary text overlaid on each broadcast
// item.
type Client struct {
	client *openai.Client
	model  string
	prompt string
	debug  func(format string, args ...interface{})
}

func New(cfg *Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("commentary: missing token")
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = defaultPrompt
	}
	if !strings.Contains(prompt, "%s") {
		return nil, fmt.Errorf("commentary: prompt has no artist placeholder: %s", prompt)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	clientCfg := openai.DefaultConfig(cfg.Token)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{
		Timeout: timeout,
	}
	debug := func(format string, args ...interface{}) {}
	if cfg.Debug {
		debug = func(format string, args ...interface{}) {
			format = fmt.Sprintf("commentary: %s\n", format)
			log.Printf(format, args...)
		}
	}
	return &Client{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		prompt: prompt,
		debug:  debug,
	}, nil
}

// Generate returns commentary for an artist.
func (c *Client) Generate(ctx context.Context, artist string) (string, error) {
	if artist == "" {
		return "", fmt.Errorf("commentary: missing artist")
	}
	msg := fmt.Sprintf(c.prompt, artist)
	c.debug("requesting commentary for %s", artist)
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: msg,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("commentary: couldn't create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("commentary: empty completion for %s", artist)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("commentary: blank completion for %s", artist)
	}
	c.debug("got %d chars for %s", len(text), artist)
	return text, nil
}

// Fallback returns the static commentary used when generation fails.
// The broadcast keeps going even without a live completion backend.
func Fallback(artist string) string {
	return fmt.Sprintf("%s: the tax records for this artist are still being pulled from the archive.", artist)
}
