package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/oxbow-chat/oxbow/internal/app"
	"github.com/oxbow-chat/oxbow/internal/bot"
	"github.com/oxbow-chat/oxbow/internal/bot/handlers"
	"github.com/oxbow-chat/oxbow/internal/channel"
	"github.com/oxbow-chat/oxbow/internal/chat"
	"github.com/oxbow-chat/oxbow/internal/chatlog"
	"github.com/oxbow-chat/oxbow/internal/command"
	"github.com/oxbow-chat/oxbow/internal/command/router"
	"github.com/oxbow-chat/oxbow/internal/permission"
	"github.com/oxbow-chat/oxbow/internal/platform/cache"
	"github.com/oxbow-chat/oxbow/internal/platform/db"
	"github.com/oxbow-chat/oxbow/internal/template"
	"github.com/oxbow-chat/oxbow/internal/user"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	permRepo := permission.NewRepository(pool)
	cmdRepo := command.NewRepository(pool)
	chanRepo := channel.NewRepository(pool)
	userRepo := user.NewRepository(pool)
	tmplRepo := template.NewRepository(pool)

	operator := chat.UserInfo{PlatformID: 1, Login: cfg.ChatUsername, DisplayName: cfg.ChatUsername}
	transport := chat.NewConsole(os.Stdin, os.Stdout, operator)
	defer func() { _ = transport.Close() }()

	queue := chatlog.NewQueue(redisClient)
	flusher := chatlog.NewFlusher(queue, chatlog.NewRepository(pool), logger)
	go flusher.Run(ctx, cfg.ChatlogFlushInterval)

	for {
		bc, err := bot.NewContext(ctx, bot.Deps{
			Sender: transport,
			Redis:  redisClient,
			Users:  user.NewService(redisClient, userRepo),
			Logger: logger,
			Loaders: bot.Loaders{
				Permissions: func(ctx context.Context) (*permission.Store, error) {
					return permission.Load(ctx, permRepo)
				},
				Commands: func(ctx context.Context) (*command.Store, error) {
					return command.Load(ctx, cmdRepo)
				},
				Templates: func(ctx context.Context) (*template.Renderer, error) {
					return template.Load(ctx, tmplRepo)
				},
			},
		})
		if err != nil {
			logger.Error("build bot context", slog.Any("error", err))
			os.Exit(1)
		}

		r := router.New(cmdRepo,
			permission.NewSetCache(redisClient, permRepo),
			permission.NewUserCache(redisClient, permRepo))
		r.Register(
			router.Say{},
			router.Reload{},
			router.Restart{},
			router.TemplateResponse{},
			router.NewChannelCmd(chanRepo),
			router.NewCommandsCmd(cmdRepo),
			router.NewTemplateCmd(tmplRepo),
		)
		if err := router.Bootstrap(ctx, bc, r, permRepo, cmdRepo); err != nil {
			logger.Error("bootstrap commands", slog.Any("error", err))
			os.Exit(1)
		}

		dispatcher := bot.NewDispatcher(cfg.MatcherConcurrency)
		dispatcher.AddGroup(bot.MatchAll, handlers.NewStateTracker(chanRepo))
		dispatcher.AddGroup(bot.MatchAll, handlers.NewChatLogger(queue))
		dispatcher.AddGroup(bot.MatchMessages, r)

		startup, err := chanRepo.StartupChannels(ctx)
		if err != nil {
			logger.Error("load startup channels", slog.Any("error", err))
			os.Exit(1)
		}
		for _, ch := range startup {
			if err := transport.Join(ctx, ch.Name); err != nil {
				logger.Warn("join channel", slog.String("channel", ch.Name), slog.Any("error", err))
				continue
			}
			bc.UpdateChannel(&bot.ChannelInfo{Data: ch})
		}
		logger.Info("bot running",
			slog.String("username", cfg.ChatUsername),
			slog.Int("channels", len(startup)))

		result, err := bot.Run(ctx, bc, transport, dispatcher, cfg.DispatchConcurrency)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("run loop", slog.Any("error", err))
			os.Exit(1)
		}
		if result == bot.RunRestart && ctx.Err() == nil {
			logger.Info("restarting")
			continue
		}
		return
	}
}
