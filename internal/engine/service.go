package engine

import (
	"context"
	crand "crypto/rand"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/githubb-dot/gamified-app/internal/platform/logger"
	"github.com/githubb-dot/gamified-app/internal/storage"
)

// OptionalQuestChance is the probability that a login spawns an optional quest.
const OptionalQuestChance = 0.25

type Deps struct {
	Generator QuestGenerator
	Notifier  Notifier
	Log       *logger.Logger
	Clock     func() time.Time
	Rand      *rand.Rand
}

type Service struct {
	db        *sql.DB
	repos     storage.Repos
	generator QuestGenerator
	notifier  Notifier
	log       *logger.Logger
	clock     func() time.Time
	tracer    trace.Tracer
	locks     *userLocks

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewService(db *sql.DB, deps Deps) *Service {
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Rand == nil {
		deps.Rand = NewRand()
	}
	return &Service{
		db:        db,
		repos:     storage.NewRepos(db),
		generator: deps.Generator,
		notifier:  deps.Notifier,
		log:       deps.Log.With("service", "Engine"),
		clock:     deps.Clock,
		tracer:    otel.Tracer("github.com/githubb-dot/gamified-app/internal/engine"),
		locks:     newUserLocks(),
		rng:       deps.Rand,
	}
}

// NewRand returns a PCG source seeded from crypto/rand.
func NewRand() *rand.Rand {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:])))
}

func (s *Service) Repos() storage.Repos { return s.repos }

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

func (s *Service) roll() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

// intn returns a value in [0, n).
func (s *Service) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.IntN(n)
}

// suggest never fails: generator errors degrade to the fallback quest.
func (s *Service) suggest(ctx context.Context, req QuestRequest) QuestSuggestion {
	if s.generator == nil {
		return FallbackSuggestion(req)
	}
	sug, err := s.generator.Suggest(ctx, req)
	if err == nil {
		err = validateSuggestion(sug)
	}
	if err != nil {
		if !errors.Is(err, ErrGenerationUnavailable) {
			err = errors.Join(ErrGenerationUnavailable, err)
		}
		s.log.Warn("quest generation failed, using fallback", "goal", req.Goal, "optional", req.Optional, "error", err)
		return FallbackSuggestion(req)
	}
	return sug
}

func validateSuggestion(sug QuestSuggestion) error {
	switch {
	case sug.Text == "":
		return errors.New("empty quest text")
	case !sug.Difficulty.IsValid():
		return errors.New("difficulty out of range")
	case sug.RewardXP <= 0:
		return errors.New("reward must be positive")
	case !sug.PrimaryStat.IsValid():
		return InvalidAttributeError{Name: string(sug.PrimaryStat)}
	}
	return nil
}

func (s *Service) notify(ctx context.Context, events []Event) {
	for _, ev := range events {
		if err := s.notifier.Notify(ctx, ev); err != nil {
			s.log.Warn("notification delivery failed", "kind", ev.Kind, "user", ev.UserID, "error", err)
		}
	}
}

type progress struct {
	User  *storage.User
	Stat  *storage.Stat
	Level *storage.UserLevel
}

func loadProgress(ctx context.Context, r storage.Repos, userID string) (*progress, error) {
	u, err := r.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, userNotFound(userID)
	}
	st, err := r.Stats.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	lvl, err := r.Levels.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st == nil || lvl == nil {
		return nil, fmt.Errorf("user %s has no progress rows: %w", userID, ErrNotFound)
	}
	return &progress{User: u, Stat: st, Level: lvl}, nil
}

func userNotFound(id string) error {
	return fmt.Errorf("user %s: %w", id, ErrNotFound)
}

func questNotFound(id string) error {
	return fmt.Errorf("quest %s: %w", id, ErrNotFound)
}
