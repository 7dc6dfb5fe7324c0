// Package questgen turns a goal into quest text through an OpenAI-compatible
// chat completions endpoint.
package questgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/githubb-dot/gamified-app/internal/engine"
	"github.com/githubb-dot/gamified-app/internal/platform/logger"
)

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type OpenAIGenerator struct {
	client  openai.Client
	model   string
	timeout time.Duration
	log     *logger.Logger
}

var _ engine.QuestGenerator = (*OpenAIGenerator)(nil)

func NewOpenAIGenerator(cfg Config, log *logger.Logger) (*OpenAIGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("generator api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("generator model is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	return &OpenAIGenerator{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		log:     log.With("service", "QuestGenerator"),
	}, nil
}

func (g *OpenAIGenerator) Suggest(ctx context.Context, req engine.QuestRequest) (engine.QuestSuggestion, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(buildPrompt(req)),
		},
		MaxTokens: openai.Int(150),
	})
	if err != nil {
		return engine.QuestSuggestion{}, fmt.Errorf("%w: chat completion: %v", engine.ErrGenerationUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return engine.QuestSuggestion{}, fmt.Errorf("%w: no choices returned", engine.ErrGenerationUnavailable)
	}

	sug, err := ParseSuggestion(resp.Choices[0].Message.Content, req.Optional)
	if err != nil {
		return engine.QuestSuggestion{}, fmt.Errorf("%w: %v", engine.ErrGenerationUnavailable, err)
	}
	g.log.Debug("quest generated",
		"goal", req.Goal,
		"optional", req.Optional,
		"difficulty", sug.Difficulty,
		"reward_xp", sug.RewardXP,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return sug, nil
}

func buildPrompt(req engine.QuestRequest) string {
	stats := make([]string, 0, len(engine.Attributes))
	for _, a := range engine.Attributes {
		stats = append(stats, string(a))
	}

	var b strings.Builder
	if req.Optional {
		fmt.Fprintf(&b, "Generate a SPECIAL TIME-LIMITED quest in the style of a dungeon system notification for a user working on: %s\n\n", req.Goal)
		b.WriteString("This is an OPTIONAL quest with higher difficulty and rewards.\n\n")
		b.WriteString("The quest should:\n")
		fmt.Fprintf(&b, "1. Have a clear objective related to %s but more challenging\n", req.Goal)
		b.WriteString("2. Include a difficulty rating (3-5 stars only)\n")
		b.WriteString("3. Specify XP reward (30-80 based on difficulty)\n")
		b.WriteString("4. Be marked as time-limited and urgent\n")
	} else {
		fmt.Fprintf(&b, "Generate a quest in the style of a dungeon system notification for a user working on: %s\n\n", req.Goal)
		b.WriteString("The quest should:\n")
		fmt.Fprintf(&b, "1. Have a clear objective related to %s\n", req.Goal)
		b.WriteString("2. Include a difficulty rating (1-5 stars)\n")
		b.WriteString("3. Specify XP reward (10-50 based on difficulty)\n")
		b.WriteString("4. Be achievable today\n")
	}
	fmt.Fprintf(&b, "5. Map to one of these stats: %s\n\n", strings.Join(stats, ", "))

	tag := "[QUEST]"
	if req.Optional {
		tag = "[SPECIAL QUEST]"
	}
	b.WriteString("Format:\n")
	fmt.Fprintf(&b, "%s <Quest title>\n", tag)
	b.WriteString("Difficulty: <stars>\n")
	b.WriteString("Reward: <XP> XP\n")
	b.WriteString("Stat: <primary stat affected>\n")
	return b.String()
}
