package questgen

import (
	"context"
	"errors"

	"github.com/githubb-dot/gamified-app/internal/engine"
	"github.com/githubb-dot/gamified-app/internal/platform/logger"
)

type staticGenerator struct{}

// Fallback returns a generator that always produces the deterministic default quest.
func Fallback() engine.QuestGenerator {
	return staticGenerator{}
}

func (staticGenerator) Suggest(_ context.Context, req engine.QuestRequest) (engine.QuestSuggestion, error) {
	return engine.FallbackSuggestion(req), nil
}

type fallbackGenerator struct {
	next engine.QuestGenerator
	log  *logger.Logger
}

// WithFallback never returns an error: failures from next are logged and replaced
// by the default quest.
func WithFallback(next engine.QuestGenerator, log *logger.Logger) engine.QuestGenerator {
	if log == nil {
		log = logger.Nop()
	}
	return &fallbackGenerator{next: next, log: log}
}

func (g *fallbackGenerator) Suggest(ctx context.Context, req engine.QuestRequest) (engine.QuestSuggestion, error) {
	sug, err := g.next.Suggest(ctx, req)
	if err == nil {
		return sug, nil
	}
	if !errors.Is(err, engine.ErrGenerationUnavailable) {
		err = errors.Join(engine.ErrGenerationUnavailable, err)
	}
	g.log.Warn("quest generation unavailable, using fallback", "goal", req.Goal, "optional", req.Optional, "error", err)
	return engine.FallbackSuggestion(req), nil
}
