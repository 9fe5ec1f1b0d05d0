package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"aquamind/internal/analyzer"
	"aquamind/internal/config"
	"aquamind/internal/database"
	"aquamind/internal/server"
	"aquamind/internal/transport"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the device daemon: HTTP server, command loop and optional interval monitoring",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildAnalyzer()
		if err != nil {
			return err
		}
		cfg := config.Get()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		redisCfg := config.GetRedisConfig()
		redisClient := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		defer redisClient.Close()

		publisher := transport.NewPublisher(redisClient, redisCfg.ResultStream)

		// History is best-effort: run without it when the database is
		// unreachable.
		var sink transport.ResultSink
		var history server.HistoryStore
		db, err := database.NewDB(config.GetDatabaseDSN())
		if err != nil {
			log.Printf("history store unavailable, continuing without: %v", err)
		} else {
			defer db.Close()
			sink = db
			history = db
		}

		commands := transport.NewCommandHandler(redisClient, redisCfg.CommandStream, a, publisher, sink)
		go func() {
			if err := commands.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("command loop stopped: %v", err)
			}
		}()

		if cfg.Device.IntervalSeconds > 0 {
			go runContinuous(ctx, a, publisher, sink, time.Duration(cfg.Device.IntervalSeconds)*time.Second)
		}

		httpServer := server.NewServer(a, publisher, sink, history)
		log.Printf("starting server on %s", cfg.Server.Addr)
		return httpServer.Start(cfg.Server.Addr)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// runContinuous periodically triggers analyses, mirroring the original
// device's monitoring mode.
func runContinuous(ctx context.Context, a *analyzer.Analyzer, publisher *transport.Publisher, sink transport.ResultSink, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("continuous monitoring every %s", interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := a.Analyze()
			if err != nil {
				log.Printf("scheduled analysis skipped: %v", err)
				continue
			}

			if err := publisher.PublishResult(ctx, result); err != nil {
				log.Printf("failed to publish result: %v", err)
			}
			if sink != nil {
				if err := sink.StoreAnalysis(result); err != nil {
					log.Printf("failed to store analysis history: %v", err)
				}
			}
		}
	}
}
