package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lireddit/internal/app"
	"lireddit/internal/config"
	"lireddit/internal/mail"
	"lireddit/internal/model"
	mysqlClient "lireddit/internal/platform/mysql"
	postgresClient "lireddit/internal/platform/postgres"
	rabbitmqClient "lireddit/internal/platform/rabbitmq"
	redisClient "lireddit/internal/platform/redis"
	"lireddit/internal/worker"
)

type App struct {
	Config      *config.Config
	DB          *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	Mailer      app.EmailPublisher
	EmailWorker *worker.EmailDispatchWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.User{}, &model.Post{}, &model.Vote{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.EmailQueue)
	if err != nil {
		return nil, err
	}

	emailWorker := worker.NewEmailDispatchWorker(mqConn, mail.NewSMTPSender(cfg.Mail), cfg.RabbitMQ.EmailQueue)
	// The worker outlives the startup context and is stopped by Close.
	if err := emailWorker.Start(context.WithoutCancel(ctx)); err != nil {
		return nil, fmt.Errorf("start email worker failed: %w", err)
	}

	return &App{
		Config:      cfg,
		DB:          db,
		Redis:       redisCli,
		MQConn:      mqConn,
		Mailer:      rabbitmqClient.NewEmailPublisher(mqConn, cfg.RabbitMQ.EmailQueue),
		EmailWorker: emailWorker,
		StartedAt:   time.Now(),
	}, nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  parseLogLevel(cfg.Database.LogLevel),
				IgnoreRecordNotFoundError: true,
			},
		),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		return postgresClient.New(ctx, cfg.Postgres.DSN, gormCfg)
	default:
		return mysqlClient.New(ctx, cfg.MySQLDSN(), gormCfg)
	}
}

func parseLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.EmailWorker != nil {
		a.EmailWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
