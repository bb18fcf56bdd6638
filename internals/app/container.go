package app

import (
	"context"
	"errors"
	"fmt"
	"uptimeline/config"
	middle "uptimeline/internals/middleware"
	"uptimeline/internals/modules/checks"
	"uptimeline/internals/modules/timeline"
	"uptimeline/internals/security"
	"uptimeline/pkg/metrics"
	"uptimeline/pkg/rabbitmq"
	"uptimeline/pkg/redisstore"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type Container struct {
	DB          *pgxpool.Pool
	RedisClient *redisstore.Client
	AMQPConn    *amqp091.Connection
	Publisher   *rabbitmq.Publisher
	Consumer    *rabbitmq.Consumer
	Metrics     *metrics.Registry
	Logger      *zerolog.Logger

	checksSvc       *checks.Service
	checksHandler   *checks.Handler
	timelineSvc     *timeline.Service
	timelineHandler *timeline.Handler
	authMW          *middle.AuthMiddleware
	agentKeyMW      middle.Middleware
}

func NewContainer(ctx context.Context, db *pgxpool.Pool, cfg *config.Config, logger *zerolog.Logger) (*Container, error) {

	c := &Container{DB: db, Logger: logger}

	redisClient, err := redisstore.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	c.RedisClient = redisClient

	conn, err := rabbitmq.NewConnection(&cfg.RabbitMQ, logger)
	if err != nil {
		c.closeInfra()
		return nil, err
	}
	c.AMQPConn = conn

	if err := rabbitmq.SetupTopology(conn, &cfg.RabbitMQ); err != nil {
		c.closeInfra()
		return nil, fmt.Errorf("setup rabbitmq topology: %w", err)
	}

	publisher, err := rabbitmq.NewPublisher(conn, cfg.RabbitMQ.ExchangeName, cfg.RabbitMQ.RoutingKey)
	if err != nil {
		c.closeInfra()
		return nil, fmt.Errorf("create publisher: %w", err)
	}
	c.Publisher = publisher

	consumer, err := rabbitmq.NewConsumer(conn, cfg.RabbitMQ.QueueName, cfg.RabbitMQ.WorkerCount, logger)
	if err != nil {
		c.closeInfra()
		return nil, fmt.Errorf("create consumer: %w", err)
	}
	c.Consumer = consumer

	c.Metrics = metrics.NewRegistry("uptimeline")
	validate := validator.New()

	checksRepo := checks.NewRepository(db, logger)
	c.checksSvc = checks.NewService(checksRepo, publisher, redisClient, c.Metrics, cfg.Timeline.DefaultInterval, logger)
	c.timelineSvc = timeline.NewService(c.checksSvc, redisClient, c.Metrics, cfg.Timeline, logger)

	c.checksHandler = checks.NewHandler(c.checksSvc, validate)
	c.timelineHandler = timeline.NewHandler(c.timelineSvc, validate)

	c.authMW = middle.NewAuthMiddleware(security.NewTokenService(&cfg.Auth))
	c.agentKeyMW = middle.AgentKey(security.NewAgentKeyVerifier(cfg.Auth.AgentKeyHash), logger)

	return c, nil
}

// ApplyTimelineConfig is the hot reload hook for the timeline section.
func (c *Container) ApplyTimelineConfig(cfg config.TimelineConfig) {
	c.timelineSvc.ApplyConfig(cfg)
}

// Shutdown drains the consumer before closing the connections it depends on.
// The DB pool is owned and closed by the caller.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error

	if c.Consumer != nil {
		if err := c.Consumer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("consumer shutdown: %w", err))
		}
	}

	errs = append(errs, c.closeInfra())
	return errors.Join(errs...)
}

func (c *Container) closeInfra() error {
	var errs []error

	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher close: %w", err))
		}
	}
	if c.AMQPConn != nil && !c.AMQPConn.IsClosed() {
		if err := c.AMQPConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("rabbitmq close: %w", err))
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	return errors.Join(errs...)
}
