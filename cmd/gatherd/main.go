package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/gatherd/gatherd/internal/config"
	"github.com/gatherd/gatherd/internal/infra/database"
	"github.com/gatherd/gatherd/internal/infra/repository"
	"github.com/gatherd/gatherd/internal/infra/telemetry"
	"github.com/gatherd/gatherd/internal/present/rest"
	authmw "github.com/gatherd/gatherd/internal/present/rest/middleware"
	"github.com/gatherd/gatherd/internal/service"
	"github.com/gatherd/gatherd/internal/usecase"
)

func main() {
	ctx := context.Background()

	configPath := os.Getenv("GATHERD_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	conf, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if conf.Server.EnableTrace {
		shutdown, err := telemetry.Setup(ctx, "gatherd", conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to set up tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			if err := shutdown(ctx); err != nil {
				slog.Error("failed to shut down tracing", slog.String("error", err.Error()))
			}
		}()
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		slog.Error("failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = database.MigratePostgres(db)
	if err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
	mc := database.NewMemcached(conf.Server.MemcachedAddr)

	store := repository.NewMeetingStore(db)
	roomRepo := repository.NewChatRoomRepository(db)
	userRepo := repository.NewUserRepository(db)

	events := service.NewEventService(rdb)
	rooms := service.NewChatRoomService(roomRepo)
	directory := service.NewDirectoryService(userRepo, mc, conf.App.JwtSecret, conf.App.UserCacheSeconds)

	meetings := usecase.NewMeetingUsecase(store, rooms, events, conf.App.PageSize)
	participation := usecase.NewParticipationUsecase(store, events)

	handler := rest.NewHandler(meetings, participation, rooms, events)
	auth := authmw.NewAuthMiddleware(directory)

	e := echo.New()
	e.Validator = rest.NewValidator()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("gatherd"))
	}
	e.Use(auth.IdentifyRequester)

	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.ListenAddr))
}
