package worker

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smorady/msg-orchestrator/internal/config"
	"github.com/smorady/msg-orchestrator/internal/contacts"
	"github.com/smorady/msg-orchestrator/internal/kafka"
	"github.com/smorady/msg-orchestrator/internal/logger"
	"github.com/smorady/msg-orchestrator/internal/metrics"
	"github.com/smorady/msg-orchestrator/internal/tracking"
	"github.com/smorady/msg-orchestrator/internal/transport"
)

var trackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Run tracking-event batcher",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		log, err := logger.New(cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		if cfg.Tracking.Endpoint == "" {
			return fmt.Errorf("tracking endpoint not configured")
		}

		stats := metrics.NewProm(prometheus.DefaultRegisterer, "msgorch")

		consumer := kafka.NewConsumer(kafka.Config{
			Brokers:        cfg.Kafka.Brokers,
			Topic:          cfg.Tracking.Topic,
			GroupID:        cfg.Kafka.GroupID,
			MinBytes:       cfg.Kafka.MinBytes,
			MaxBytes:       cfg.Kafka.MaxBytes,
			CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
		})
		defer func() { _ = consumer.Close() }()

		doer := transport.NewHTTPClient(&http.Client{Timeout: 30 * time.Second})

		batcher := &tracking.Batcher{
			Source:    consumer,
			Transport: doer,
			Endpoint:  cfg.Tracking.Endpoint,
			APIKey:    cfg.Tracking.APIKey,
			Log:       log,
			Stats:     stats,
			BatchSize: cfg.Tracking.BatchSize,
			BatchWait: cfg.Tracking.BatchWait,
		}
		if cfg.Contacts.BaseURL != "" {
			batcher.Contacts = contacts.NewClient(doer, cfg.Contacts.BaseURL, cfg.Contacts.APIKey, log)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		log.Info("tracker worker starting",
			zap.String("topic", cfg.Tracking.Topic),
			zap.Strings("brokers", cfg.Kafka.Brokers),
		)

		if err := batcher.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("tracker run: %w", err)
		}
		log.Info("tracker worker stopped")
		return nil
	},
}
