package database

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/config"
)

const defaultRedisPort = "6379"

// redisOptions prefers REDIS_URL and otherwise assembles host, port,
// password and database number.
func redisOptions(cfg *config.Config) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		return opts, nil
	}
	port := cfg.RedisPort
	if port == "" {
		port = defaultRedisPort
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

// NewRedisClient connects and pings. The client is closed when the ping fails.
func NewRedisClient(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*redis.Client, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	log.WithFields(logrus.Fields{"addr": opts.Addr, "db": opts.DB}).Info("connected to redis")
	return client, nil
}
