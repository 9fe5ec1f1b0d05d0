package transport

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"aquamind/internal/analyzer"
	"aquamind/internal/models"
)

// Command vocabulary accepted from the display client.
const (
	CmdAnalyze        = "analyze"
	CmdStatus         = "status"
	CmdSetCredentials = "set_credentials"
)

// ResultSink receives completed analyses for persistence. A nil sink
// disables history.
type ResultSink interface {
	StoreAnalysis(result *models.AnalysisResult) error
}

// CommandHandler consumes the command stream and dispatches to the
// analyzer. All commands run on the consumer goroutine, so hardware event
// ordering is preserved without a background-thread memory model.
type CommandHandler struct {
	client    *redis.Client
	stream    string
	analyzer  *analyzer.Analyzer
	publisher *Publisher
	sink      ResultSink
}

// NewCommandHandler creates a command consumer.
func NewCommandHandler(client *redis.Client, stream string, a *analyzer.Analyzer, p *Publisher, sink ResultSink) *CommandHandler {
	return &CommandHandler{
		client:    client,
		stream:    stream,
		analyzer:  a,
		publisher: p,
		sink:      sink,
	}
}

// Run blocks consuming commands until the context is cancelled. Only
// commands published after startup are processed.
func (h *CommandHandler) Run(ctx context.Context) error {
	lastID := "$"

	log.Printf("command loop started on stream %s", h.stream)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		messages, err := h.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{h.stream, lastID},
			Count:   10,
			Block:   2 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("error reading command stream: %v", err)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range messages {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				h.dispatch(ctx, msg)
			}
		}
	}
}

// dispatch executes one command. Malformed commands are rejected locally
// with a logged warning and never affect an in-progress or future
// analysis.
func (h *CommandHandler) dispatch(ctx context.Context, msg redis.XMessage) {
	name, ok := msg.Values["command"].(string)
	if !ok {
		log.Printf("Warning: command message %s has no 'command' field", msg.ID)
		return
	}

	switch name {
	case CmdAnalyze:
		h.handleAnalyze(ctx)

	case CmdStatus:
		if err := h.publisher.PublishStatus(ctx, h.analyzer.Status()); err != nil {
			log.Printf("failed to publish status: %v", err)
		}

	case CmdSetCredentials:
		value, ok := msg.Values["value"].(string)
		if !ok || value == "" {
			log.Printf("Warning: set_credentials command %s has no value, ignoring", msg.ID)
			return
		}
		// The credential is opaque to the core and must never be
		// logged in cleartext.
		h.analyzer.SetNetworkCredentials(value)

	default:
		log.Printf("Warning: unknown command %q (message %s)", name, msg.ID)
	}
}

func (h *CommandHandler) handleAnalyze(ctx context.Context) {
	result, err := h.analyzer.Analyze()
	if err != nil {
		if errors.Is(err, analyzer.ErrBusy) || errors.Is(err, analyzer.ErrCoolingDown) {
			log.Printf("analyze command rejected: %v", err)
			return
		}
		log.Printf("analysis failed: %v", err)
		return
	}

	if err := h.publisher.PublishResult(ctx, result); err != nil {
		log.Printf("failed to publish result: %v", err)
	}

	if h.sink != nil {
		if err := h.sink.StoreAnalysis(result); err != nil {
			log.Printf("failed to store analysis history: %v", err)
		}
	}
}
