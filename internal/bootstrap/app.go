package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"vidhub/internal/app"
	"vidhub/internal/cache"
	"vidhub/internal/config"
	"vidhub/internal/logging"
	"vidhub/internal/model"
	"vidhub/internal/pkg/hasher"
	"vidhub/internal/pkg/jwtutil"
	mysqlClient "vidhub/internal/platform/mysql"
	rabbitmqClient "vidhub/internal/platform/rabbitmq"
	redisClient "vidhub/internal/platform/redis"
	s3Client "vidhub/internal/platform/s3"
	"vidhub/internal/repository"
	"vidhub/internal/storage"
	"vidhub/internal/worker"
)

type App struct {
	Config      *config.Config
	Logger      logging.Logger
	MySQL       *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	S3          *s3.Client
	WatchWorker *worker.WatchEventWorker

	Accounts *app.AccountService
	Guard    *app.SessionGuard
	Channels *app.ChannelService
	History  *app.HistoryService

	StartedAt time.Time
}

// New wires every dependency. Redis and RabbitMQ are optional: an empty
// address turns off access-token revocation and async history writes.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	a := &App{Config: cfg, Logger: logging.New(cfg.App.GinMode), StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	db, err := mysqlClient.New(ctx, cfg.MySQLDSN(), cfg.App.GinMode == "debug")
	if err != nil {
		return err
	}
	a.MySQL = db
	if err := db.AutoMigrate(model.Tables()...); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}

	var epochs *cache.SessionEpochStore
	if cfg.Redis.Addr != "" {
		a.Redis, err = redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		epochs = cache.NewSessionEpochStore(a.Redis, cfg.AccessTTL())
	} else {
		a.Logger.Warn(ctx, "redis disabled, access tokens stay valid until expiry after logout")
	}

	if cfg.RabbitMQ.URL != "" {
		a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.WatchEventQueue)
		if err != nil {
			return err
		}
	} else {
		a.Logger.Warn(ctx, "rabbitmq disabled, watch history is written inline")
	}

	a.S3, err = s3Client.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	uploader := storage.NewS3Uploader(a.S3, cfg.Storage.Bucket, cfg.Storage.Endpoint, cfg.Storage.PublicBaseURL)

	pool, err := hasher.New(cfg.Auth.HashWorkers, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	store := app.NewCredentialStore(repository.NewUserRepository(db), pool)
	tokens := app.NewTokenService(store,
		jwtutil.NewSigner(cfg.Auth.AccessTokenSecret, cfg.AccessTTL()),
		jwtutil.NewSigner(cfg.Auth.RefreshTokenSecret, cfg.RefreshTTL()),
	)

	// typed nils must not reach the interface-valued parameters
	var revoker app.SessionRevoker
	var guardEpochs app.SessionEpochs
	if epochs != nil {
		revoker, guardEpochs = epochs, epochs
	}
	var publisher app.WatchEventPublisher
	if a.MQConn != nil {
		publisher = rabbitmqClient.NewWatchEventPublisher(a.MQConn, cfg.RabbitMQ.WatchEventQueue)
	}

	a.Accounts = app.NewAccountService(store, tokens, uploader, revoker, a.Logger.With("component", "accounts"))
	a.Guard = app.NewSessionGuard(tokens, store, guardEpochs)
	a.Channels = app.NewChannelService(store, repository.NewSubscriptionRepository(db))
	a.History = app.NewHistoryService(store,
		repository.NewVideoRepository(db),
		repository.NewWatchHistoryRepository(db),
		publisher,
		a.Logger.With("component", "history"),
	)

	if a.MQConn != nil {
		a.WatchWorker = worker.NewWatchEventWorker(a.MQConn, a.History, cfg.RabbitMQ.WatchEventQueue, a.Logger)
		if err := a.WatchWorker.Start(ctx); err != nil {
			return fmt.Errorf("start watch event worker failed: %w", err)
		}
	}
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.WatchWorker != nil {
		a.WatchWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
