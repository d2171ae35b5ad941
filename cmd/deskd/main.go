package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	apiPkg "github.com/deskd-io/deskd/internal/api"
	"github.com/deskd-io/deskd/internal/compose"
	"github.com/deskd-io/deskd/internal/config"
	"github.com/deskd-io/deskd/internal/connector"
	slackconn "github.com/deskd-io/deskd/internal/connector/slack"
	"github.com/deskd-io/deskd/internal/connector/telegram"
	"github.com/deskd-io/deskd/internal/connector/webhook"
	"github.com/deskd-io/deskd/internal/engine"
	"github.com/deskd-io/deskd/internal/flow"
	"github.com/deskd-io/deskd/internal/knowledge"
	"github.com/deskd-io/deskd/internal/logbuf"
	"github.com/deskd-io/deskd/internal/router"
	"github.com/deskd-io/deskd/internal/scheduler"
	"github.com/deskd-io/deskd/internal/session"
	"github.com/deskd-io/deskd/internal/ticket"
)

func main() {
	configPath := flag.String("config", "", "Path to config JSON file")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	// Set up logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logRing := logbuf.NewRing(2000)
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logbuf.NewHandler(jsonHandler, logRing))

	// Load config (file or env)
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("deskd starting", "data_dir", cfg.Core.DataDir)

	// 1. Ticket store + manager
	os.MkdirAll(cfg.Core.DataDir, 0o755)
	dbPath := cfg.Core.DataDir + "/tickets.db"
	store, err := ticket.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Error("failed to open ticket store", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	var ticketOpts []ticket.ManagerOption
	if len(cfg.Staff) > 0 {
		ticketOpts = append(ticketOpts, ticket.WithAssigner(ticket.NewAssigner(cfg.Staff)))
	}
	tickets := ticket.NewManager(store, logger.With("component", "tickets"), ticketOpts...)

	// 2. Knowledge index
	var kbLoaders []knowledge.Loader
	if cfg.Knowledge.Builtin == nil || *cfg.Knowledge.Builtin {
		kbLoaders = append(kbLoaders, knowledge.Default())
	}
	if cfg.Knowledge.PackDir != "" {
		kbLoaders = append(kbLoaders, knowledge.YAMLLoader{Dir: cfg.Knowledge.PackDir})
	}
	index, err := knowledge.New(kbLoaders...)
	if err != nil {
		logger.Error("failed to build knowledge index", "error", err)
		os.Exit(1)
	}
	logger.Info("knowledge index ready", "articles", index.Len())

	// 3. Troubleshooting flow registry
	defs := flow.Builtin()
	if cfg.Flows.Builtin != nil && !*cfg.Flows.Builtin {
		defs = nil
	}
	if cfg.Flows.PackDir != "" {
		extra, err := flow.LoadDir(cfg.Flows.PackDir)
		if err != nil {
			logger.Error("failed to load flow pack", "dir", cfg.Flows.PackDir, "error", err)
			os.Exit(1)
		}
		defs = append(defs, extra...)
	}
	registry, err := flow.NewRegistry(defs...)
	if err != nil {
		logger.Error("invalid flow definitions", "error", err)
		os.Exit(1)
	}
	flows := flow.NewEngine(registry)

	// 4. Sessions, router, composer, engine
	sessions := session.NewManager(session.NewMemoryStore(), logger.With("component", "sessions"),
		session.WithTTL(time.Duration(cfg.Core.SessionTTLHours)*time.Hour),
		session.WithMaxTurns(cfg.Core.MaxTurns),
	)

	routerOpts := []router.RouterOption{
		router.WithAutoCreateThreshold(cfg.Core.AutoCreateThreshold),
		router.WithMaxSubQueries(cfg.Core.MaxSubQueries),
	}
	if len(cfg.Catalog) > 0 {
		routerOpts = append(routerOpts, router.WithCatalog(router.Catalog(cfg.Catalog)))
	}
	rt := router.New(sessions, index, flows, tickets, logger.With("component", "router"), routerOpts...)

	var composer compose.Composer
	switch cfg.Composer.Kind {
	case "llm":
		var opts []compose.LLMOption
		if cfg.Composer.BaseURL != "" {
			opts = append(opts, compose.WithBaseURL(cfg.Composer.BaseURL))
		}
		if cfg.Composer.Model != "" {
			opts = append(opts, compose.WithModel(cfg.Composer.Model))
		}
		composer = compose.NewLLM(cfg.Composer.APIKey, logger.With("component", "composer"), opts...)
	default:
		composer = compose.NewTemplate()
	}

	eng := engine.New(sessions, rt, composer, tickets, flows, logger.With("component", "engine"))

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. Background jobs
	sched := scheduler.New(logger.With("component", "scheduler"))
	err = sched.AddJob("session-sweep", cfg.Core.SweepSchedule, func() {
		sessions.ExpireIdle(time.Now())
	})
	if err != nil {
		logger.Error("failed to register session sweep", "error", err)
		os.Exit(1)
	}
	progressAge := time.Duration(cfg.Core.ProgressAgeHours) * time.Hour
	err = sched.AddJob("ticket-progress", cfg.Core.ProgressSchedule, func() {
		n, err := tickets.AdvanceDue(progressAge)
		if err != nil {
			logger.Error("ticket progression failed", "error", err)
			return
		}
		if n > 0 {
			logger.Info("tickets auto-advanced", "count", n)
		}
	})
	if err != nil {
		logger.Error("failed to register ticket progression", "error", err)
		os.Exit(1)
	}
	go safeGo(logger, "scheduler", func() { sched.Start(ctx) })

	// 6. Connectors
	var notifier *webhook.Notifier
	if cfg.Connectors.Webhook != nil {
		notifier = webhook.New(webhook.Config{
			URL:    cfg.Connectors.Webhook.URL,
			Secret: cfg.Connectors.Webhook.Secret,
		}, logger.With("connector", "webhook"))
	}

	// All platform connectors share one handler: route to the engine,
	// mirror the reply to the webhook endpoint when configured.
	inboundHandler := func(ctx context.Context, msg connector.Inbound) (string, error) {
		sessionID := msg.Channel + ":" + msg.ChatID
		reply, err := eng.ProcessMessage(ctx, sessionID, msg.Content)
		if err != nil {
			return "", err
		}
		if notifier != nil {
			if nerr := notifier.Notify(ctx, webhook.Event{
				Type:      "reply",
				SessionID: sessionID,
				Channel:   msg.Channel,
				Text:      reply.Text,
			}); nerr != nil {
				logger.Warn("webhook delivery failed", "error", nerr)
			}
		}
		return reply.Text, nil
	}

	if cfg.Connectors.Telegram != nil {
		tgConn, err := telegram.New(telegram.Config{
			Token:     cfg.Connectors.Telegram.Token,
			AllowFrom: cfg.Connectors.Telegram.AllowFrom,
		}, inboundHandler, logger.With("connector", "telegram"))
		if err != nil {
			logger.Error("failed to init telegram connector", "error", err)
			os.Exit(1)
		}
		go safeGo(logger, "telegram", func() { tgConn.Start(ctx) })
	}

	if cfg.Connectors.Slack != nil {
		slConn, err := slackconn.New(slackconn.Config{
			BotToken: cfg.Connectors.Slack.BotToken,
			AppToken: cfg.Connectors.Slack.AppToken,
		}, inboundHandler, logger.With("connector", "slack"))
		if err != nil {
			logger.Error("failed to init slack connector", "error", err)
			os.Exit(1)
		}
		go safeGo(logger, "slack", func() { slConn.Start(ctx) })
	}

	// 7. API server
	apiSrv := apiPkg.NewServer(eng, apiPkg.Config{
		Host: cfg.API.Host,
		Port: cfg.API.Port,
		Key:  cfg.API.Key,
	}, logger.With("component", "api"), logRing)

	go safeGo(logger, "api-server", func() { apiSrv.Start(ctx) })
	logger.Info("api server started", "port", cfg.API.Port)

	// 8. Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	cancel()
	logger.Info("deskd stopped")
}

// safeGo runs fn with panic recovery.
func safeGo(logger *slog.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("goroutine panicked", "name", name, "panic", fmt.Sprintf("%v", r))
		}
	}()
	fn()
}
