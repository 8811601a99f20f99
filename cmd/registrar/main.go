// Command registrar is the Lambda consumer of the records table stream. It
// registers the subdomain of every record it sees inserted.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"

	"github.com/jacentio/sammy/model"
	"github.com/jacentio/sammy/store"
	"github.com/jacentio/sammy/store/redisid"
	"github.com/jacentio/sammy/stream"
)

func main() {
	settings, err := fromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(settings.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	opts := []store.Option{store.WithLogger(logger)}
	if settings.RedisURL != "" {
		redisOpts, err := redis.ParseURL(settings.RedisURL)
		if err != nil {
			logger.Error("invalid redis URL", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(redisOpts)
		defer client.Close()
		opts = append(opts, store.WithAllocator(redisid.New(client)))
	}

	s := store.New(dynamodb.NewFromConfig(awsCfg), settings.Store, opts...)
	handler := stream.NewHandler(s.Subdomains(), model.Kinds(), logger)

	logger.Info("registrar starting",
		"recordTable", s.Config().RecordTable,
		"numShards", s.Config().NumShards,
	)
	lambda.Start(handler.HandleRecordInserts)
}
