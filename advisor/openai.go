package advisor

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"
)

// OpenAIOpts configures an OpenAI advisor. BaseURL may point at any
// endpoint that speaks the chat completions API.
type OpenAIOpts struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// OpenAI asks a chat completion model to pick a card
type OpenAI struct {
	client openai.Client
	logger *zap.Logger
}

func NewOpenAI(opts OpenAIOpts) *OpenAI {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		// the caller falls back instead of retrying
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenAI{
		client: openai.NewClient(reqOpts...),
		logger: logger,
	}
}

func (o *OpenAI) Advise(ctx context.Context, req Request) (Decision, error) {
	start := time.Now()

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(buildSystemPrompt(req)),
			openai.UserMessage(buildUserPrompt(req)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return Decision{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Decision{}, ErrEmptyReply
	}

	o.logger.Debug("chat completion",
		zap.String("model", req.Model),
		zap.Duration("took", time.Since(start)),
		zap.Int64("tokens", resp.Usage.TotalTokens),
	)

	return parseDecision(resp.Choices[0].Message.Content)
}
