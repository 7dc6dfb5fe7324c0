package root

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/githubb-dot/gamified-app/internal/config"
	"github.com/githubb-dot/gamified-app/internal/engine"
	"github.com/githubb-dot/gamified-app/internal/notify"
	"github.com/githubb-dot/gamified-app/internal/platform/logger"
	"github.com/githubb-dot/gamified-app/internal/platform/tracing"
	"github.com/githubb-dot/gamified-app/internal/questgen"
	"github.com/githubb-dot/gamified-app/internal/storage"
)

// app is everything a command needs once configuration is resolved.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *sql.DB
	svc   *engine.Service
	redis *notify.RedisSink
}

func loadConfig(opts *options) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if s := strings.TrimSpace(opts.dbPath); s != "" {
		cfg.DBPath = s
	}
	if s := strings.TrimSpace(opts.user); s != "" {
		cfg.User = s
	}
	return cfg, nil
}

func openApp(ctx context.Context, opts *options) (*app, func(), error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	shutdownTracing, err := tracing.Init(tracing.Config{Stdout: cfg.Tracing.Stdout, Writer: os.Stderr}, log)
	if err != nil {
		log.Sync()
		return nil, nil, err
	}
	db, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		_ = shutdownTracing(ctx)
		log.Sync()
		return nil, nil, err
	}

	a := &app{cfg: cfg, log: log, db: db}
	sinks := []notify.Sink{notify.NewInboxSink(db)}
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		rs, err := notify.NewRedisSink(ctx, notify.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		}, log)
		if err != nil {
			log.Warn("redis notifications disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			a.redis = rs
			sinks = append(sinks, rs)
		}
	}

	a.svc = engine.NewService(db, engine.Deps{
		Generator: newGenerator(cfg, log),
		Notifier:  notify.Multi(sinks...),
		Log:       log,
	})

	cleanup := func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
		_ = db.Close()
		_ = shutdownTracing(context.Background())
		log.Sync()
	}
	return a, cleanup, nil
}

func newGenerator(cfg *config.Config, log *logger.Logger) engine.QuestGenerator {
	if strings.TrimSpace(cfg.Generator.APIKey) == "" {
		return questgen.Fallback()
	}
	g, err := questgen.NewOpenAIGenerator(questgen.Config{
		BaseURL: cfg.Generator.BaseURL,
		APIKey:  cfg.Generator.APIKey,
		Model:   cfg.Generator.Model,
		Timeout: cfg.Generator.Timeout,
	}, log)
	if err != nil {
		log.Warn("quest generator disabled", "error", err)
		return questgen.Fallback()
	}
	return questgen.WithFallback(g, log)
}

// currentUser resolves the configured user, creating it on first use.
func (a *app) currentUser(ctx context.Context) (*storage.User, error) {
	return a.svc.EnsureUser(ctx, a.cfg.User)
}

// findQuest accepts a full quest id or a unique prefix of one of the user's quests.
func (a *app) findQuest(ctx context.Context, userID, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("quest id is required")
	}
	if q, err := a.svc.Quest(ctx, userID, ref); err == nil && q != nil {
		return q.ID, nil
	}
	all, err := a.svc.ListQuests(ctx, userID, storage.QuestFilter{})
	if err != nil {
		return "", err
	}
	var match string
	for _, q := range all {
		if strings.HasPrefix(q.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("quest id %q is ambiguous", ref)
			}
			match = q.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("quest %s: %w", ref, engine.ErrNotFound)
	}
	return match, nil
}
