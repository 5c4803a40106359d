package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	gormlogger "gorm.io/gorm/logger"

	"github.com/adsskipbot/AdsSkipBot-Go/bot/cleaner"
	"github.com/adsskipbot/AdsSkipBot-Go/bot/config"
	"github.com/adsskipbot/AdsSkipBot-Go/bot/db"
	"github.com/adsskipbot/AdsSkipBot-Go/bot/entitlement"
	logpkg "github.com/adsskipbot/AdsSkipBot-Go/bot/logger"
	"github.com/adsskipbot/AdsSkipBot-Go/bot/telegram"
	"github.com/adsskipbot/AdsSkipBot-Go/bot/telegram/handler"
	"github.com/adsskipbot/AdsSkipBot-Go/bot/worker"
)

// App wires all application dependencies.
type App struct {
	Config      *config.Config
	Logger      *logpkg.Logger
	DB          *db.Repository
	Pool        *worker.Pool
	Entitlement *entitlement.Service
	Cleaner     *cleaner.Cleaner
	Telegram    *telegram.Bot
	Build       BuildInfo

	dispatcher *th.BotHandler
}

// BuildInfo provides build-time metadata.
type BuildInfo struct {
	RuntimeVer string
	BinVersion string
	CommitSHA  string
	BuildTime  string
	BuildArch  string
}

// New builds the application container.
func New(ctx context.Context, configPath string, build BuildInfo) (*App, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logpkg.New(
		conf.GetString("LogLevel"),
		conf.GetString("LogFormat"),
		conf.GetString("LogDir"),
		conf.GetBool("LogSource"),
	)
	if err != nil {
		return nil, err
	}

	gormLogger := logpkg.NewGormLogger(log.Slog(), mapLogLevel(conf.GetString("GormLogLevel")))
	databasePath := conf.GetString("Database")
	if strings.TrimSpace(databasePath) == "" {
		databasePath = "entitlements.db"
	}

	repo, err := db.NewSQLiteRepository(databasePath, gormLogger)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}
	poolMaxOpen := conf.GetInt("DBMaxOpenConns")
	poolMaxIdle := conf.GetInt("DBMaxIdleConns")
	poolMaxLifetimeSec := conf.GetInt("DBConnMaxLifetimeSec")
	if err := repo.ConfigurePool(poolMaxOpen, poolMaxIdle, time.Duration(poolMaxLifetimeSec)*time.Second); err != nil {
		return nil, fmt.Errorf("configure db pool: %w", err)
	}

	pool := worker.New(conf.GetInt("WorkerPoolSize"))

	location, err := conf.Location()
	if err != nil {
		return nil, err
	}
	ent := entitlement.NewService(repo, entitlement.Settings{
		FreeDailyLimit:       conf.GetInt("FreeDailyLimit"),
		ReferralsPerReward:   conf.GetInt("ReferralsPerReward"),
		PremiumDaysPerReward: conf.GetInt("PremiumDaysPerReward"),
		TrialDays:            conf.GetInt("TrialDays"),
		Location:             location,
	}, log)

	resolver := cleaner.NewResolver(cleaner.ResolverOptions{
		MaxHops: conf.GetInt("MaxRedirectHops"),
		Timeout: time.Duration(conf.GetInt("FetchTimeout")) * time.Second,
		Logger:  log,
	})
	denylist := cleaner.NewDenylist(
		conf.GetStringList("TrackingParams"),
		conf.GetStringList("TrackingParamPrefixes"),
	)
	clean := cleaner.NewCleaner(resolver, denylist, log)

	tele, err := telegram.New(conf, log)
	if err != nil {
		return nil, fmt.Errorf("init telegram: %w", err)
	}

	return &App{
		Config:      conf,
		Logger:      log,
		DB:          repo,
		Pool:        pool,
		Entitlement: ent,
		Cleaner:     clean,
		Telegram:    tele,
		Build:       build,
	}, nil
}

// Start connects to Telegram and begins handling updates.
func (a *App) Start(ctx context.Context) error {
	meCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	me, err := a.Telegram.GetMe(meCtx)
	if err != nil {
		return fmt.Errorf("getMe: %w", err)
	}
	a.Logger.Info("bot authorized", "username", me.Username, "id", me.ID)

	rateLimitPerSecond := a.Config.GetFloat64("RateLimitPerSecond")
	if rateLimitPerSecond <= 0 {
		rateLimitPerSecond = 1.0
	}
	rateLimitBurst := a.Config.GetInt("RateLimitBurst")
	if rateLimitBurst <= 0 {
		rateLimitBurst = 3
	}
	rateLimiter := telegram.NewRateLimiter(rateLimitPerSecond, rateLimitBurst)
	rateLimiter.SetLogger(a.Logger)

	handlers := &handler.Handlers{
		Bot:         a.Telegram,
		Limiter:     rateLimiter,
		Pool:        a.Pool,
		Cleaner:     a.Cleaner,
		Entitlement: a.Entitlement,
		Repo:        a.DB,
		Logger:      a.Logger,
		Admins:      a.adminIDs(),
		BotUsername: me.Username,
		Build: handler.BuildInfo{
			Version:   a.Build.BinVersion,
			CommitSHA: a.Build.CommitSHA,
			BuildTime: a.Build.BuildTime,
			BuildArch: a.Build.BuildArch,
		},
	}

	updates, err := a.Telegram.StartPolling(ctx)
	if err != nil {
		return fmt.Errorf("start polling: %w", err)
	}
	dispatcher, err := th.NewBotHandler(a.Telegram.Client(), updates)
	if err != nil {
		return fmt.Errorf("init dispatcher: %w", err)
	}
	handlers.Register(dispatcher)
	a.dispatcher = dispatcher

	_ = a.Telegram.Client().SetMyCommands(ctx, &telego.SetMyCommandsParams{
		Commands: handler.Commands(),
	})

	go dispatcher.Start()
	return nil
}

// Shutdown releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error

	if a.dispatcher != nil {
		a.dispatcher.Stop()
	}

	if a.Pool != nil {
		if err := a.Pool.Shutdown(ctx); err != nil {
			a.Pool.StopNow()
			if firstErr == nil {
				firstErr = fmt.Errorf("shutdown worker pool: %w", err)
			}
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			if a.Logger != nil {
				a.Logger.Error("failed to close database", "error", err)
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("close database: %w", err)
			}
		}
	}

	if a.Logger != nil {
		if err := a.Logger.Close(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("close logger: %w", err)
			}
		}
	}

	return firstErr
}

// adminIDs parses the BotAdmin config entry, which may be a single id or
// a comma-separated list.
func (a *App) adminIDs() []int64 {
	var admins []int64
	for _, entry := range a.Config.GetStringList("BotAdmin") {
		id, err := strconv.ParseInt(entry, 10, 64)
		if err != nil {
			a.Logger.Warn("ignoring bad BotAdmin entry", "value", entry)
			continue
		}
		admins = append(admins, id)
	}
	return admins
}

func mapLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace", "info":
		return gormlogger.Info
	case "error", "fatal", "panic":
		return gormlogger.Error
	case "warn", "warning":
		fallthrough
	default:
		return gormlogger.Warn
	}
}
