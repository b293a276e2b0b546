package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"userapi/internal/api"
	appcfg "userapi/internal/app/config"
	appdb "userapi/internal/app/db"
	"userapi/internal/app/handler"
	"userapi/internal/app/redis"
	"userapi/internal/app/repository"
)

// App loads the configuration, wires the collaborators and serves until ctx is done.
func App(ctx context.Context) error {
	cfg, err := appcfg.FromEnv(appcfg.Path())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	setupLogging(cfg)

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return app.Serve(ctx, cfg.App.Host, cfg.App.Port)
}

// New builds a ready-to-serve application from cfg. Nothing is created in the
// database until Serve runs the start hooks.
func New(ctx context.Context, cfg appcfg.Config) (app *api.Application, err error) {
	gormDB, err := appdb.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	var redisClient *redis.Client
	defer func() {
		if err == nil {
			return
		}
		if redisClient != nil {
			redisClient.Close()
		}
		appdb.Close(gormDB)
	}()

	repo, err := repository.NewRepository(gormDB)
	if err != nil {
		return nil, fmt.Errorf("repository: %w", err)
	}

	var cache handler.UserCache
	if cfg.Redis.Addr != "" {
		redisClient, err = redis.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("redis connect: %w", err)
		}
		cache = redisClient
	}

	app = api.Build(api.DefaultMetadata,
		api.WithShutdownTimeout(time.Duration(cfg.App.ShutdownTimeout)*time.Second))
	if err = wire(app, handler.NewHandler(repo, cache), gormDB, redisClient); err != nil {
		return nil, err
	}
	return app, nil
}

// wire installs CORS, routes, docs and the lifecycle hooks on a freshly built app.
func wire(app *api.Application, users api.Router, gormDB *gorm.DB, redisClient *redis.Client) error {
	if err := app.ConfigureCORS(api.DefaultCORSConfig()); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := app.MountRouter(users, "/api/v1"); err != nil {
		return fmt.Errorf("mount users: %w", err)
	}
	if err := app.RegisterStatusRoutes(); err != nil {
		return fmt.Errorf("status routes: %w", err)
	}
	if err := app.EnableDocs(); err != nil {
		return fmt.Errorf("docs: %w", err)
	}

	err := app.OnStart(func(ctx context.Context) error {
		return appdb.EnsureSchema(ctx, gormDB, repository.Models()...)
	})
	if err != nil {
		return err
	}

	// registered first, closed last
	err = app.OnStop(func(context.Context) error {
		return appdb.Close(gormDB)
	})
	if err != nil {
		return err
	}
	if redisClient != nil {
		return app.OnStop(func(context.Context) error {
			return redisClient.Close()
		})
	}
	return nil
}

func setupLogging(cfg appcfg.Config) {
	level, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("unknown log level %q, using info", cfg.App.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	switch cfg.App.Mode {
	case "":
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.App.Mode)
	default:
		logrus.Warnf("unknown gin mode %q, keeping %s", cfg.App.Mode, gin.Mode())
	}
	if gin.Mode() == gin.ReleaseMode {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
