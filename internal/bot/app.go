package bot

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	corebootstrap "github.com/vladvlasov256/YourDutchBot/core/bootstrap"
	tg "github.com/vladvlasov256/YourDutchBot/core/telegram"
	"github.com/vladvlasov256/YourDutchBot/core/telegram/commands"
	"github.com/vladvlasov256/YourDutchBot/core/telegram/router"
	"github.com/vladvlasov256/YourDutchBot/internal/broadcast"
	"github.com/vladvlasov256/YourDutchBot/internal/config"
	"github.com/vladvlasov256/YourDutchBot/internal/content"
	"github.com/vladvlasov256/YourDutchBot/internal/lesson"
	"github.com/vladvlasov256/YourDutchBot/internal/news"
	"github.com/vladvlasov256/YourDutchBot/internal/storage"
)

// App assembles the lesson bot: storage, content backend, state
// machine, and the Telegram wiring around them.
type App struct {
	cfg      *config.Config
	db       *sqlx.DB
	cache    *storage.TopicsCache
	machine  *lesson.Machine
	registry *tg.Registry

	job     *broadcast.Job
	pushSrv *broadcast.Server
}

// New bootstraps infrastructure and builds the application.
func New(cfg *config.Config) (*App, error) {
	boot, err := corebootstrap.Run(corebootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cache, err := storage.NewTopicsCache(ctx, cfg.Redis)
	if err != nil {
		_ = boot.DB.Close()
		return nil, err
	}

	machine := lesson.NewMachine(
		storage.NewPostgresStore(boot.DB),
		cache,
		news.NewClient(cfg.News, nil),
		content.NewGenerator(cfg.OpenAI),
		news.Catalog(cfg.Topics),
	)

	a := &App{
		cfg:     cfg,
		db:      boot.DB,
		cache:   cache,
		machine: machine,
	}
	a.registry = a.buildRegistry()
	return a, nil
}

func (a *App) buildRegistry() *tg.Registry {
	reg := tg.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Register and see how the bot works",
	})
	reg.RegisterCommand("/lesson", commands.Command{
		Handler:     a.handleLesson,
		Description: "Start or resume today's lesson",
	})
	reg.RegisterCommand("/status", commands.Command{
		Handler:     a.handleStatus,
		Description: "Check today's progress",
	})
	reg.RegisterCommand("/skip", commands.Command{
		Handler:     a.handleSkip,
		Description: "Skip the current task",
	})
	reg.RegisterCommand("/reset", commands.Command{
		Handler:     a.handleReset,
		Description: "Start over today's exercises",
	})
	reg.RegisterCommand("/push", commands.Command{
		Handler:     a.handlePush,
		Description: "Trigger the daily push now",
		AdminOnly:   true,
		Hidden:      true,
	})

	_ = reg.RegisterCallback(lesson.ActionSelectTopic, a.handleTopicSelect)
	_ = reg.RegisterCallback(lesson.ActionAnswer, a.handleAnswer)
	return reg
}

// TelegramRunOptions builds the bot runtime configuration.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID: a.cfg.Core.Telegram.AdminID,
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.MessageRoutes(a.registry, router.MessageOptions{
		Voice: a.handleVoice,
	})...)

	return tg.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(_ context.Context, rt tg.Runtime) error {
	a.job = broadcast.NewJob(
		a.machine,
		&telegramSender{bot: rt.Bot},
		time.Duration(a.cfg.Broadcast.DelayMS)*time.Millisecond,
	)
	if a.cfg.Broadcast.Secret != "" {
		a.pushSrv = broadcast.NewServer(a.cfg.Broadcast, a.job)
		go a.pushSrv.Start()
	}
	return nil
}

func (a *App) onStop(_ context.Context, _ tg.Runtime) error {
	if a.pushSrv != nil {
		// The run context is already canceled at this point.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.pushSrv.Shutdown(shutdownCtx)
	}
	_ = a.cache.Close()
	return a.db.Close()
}
