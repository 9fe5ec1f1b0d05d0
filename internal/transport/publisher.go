// Package transport moves analysis results to the display client over
// Redis streams and consumes the client's command vocabulary. The stream
// boundary stands in for the device's wireless link.
package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"aquamind/internal/analyzer"
	"aquamind/internal/models"
)

// maxStreamLen bounds stream growth on long-running devices.
const maxStreamLen = 500

// Publisher pushes flat key-value records onto the result stream.
type Publisher struct {
	client *redis.Client
	stream string
}

// NewPublisher creates a publisher for the given result stream.
func NewPublisher(client *redis.Client, stream string) *Publisher {
	return &Publisher{client: client, stream: stream}
}

// PublishResult serializes one analysis result as a flat record and
// appends it to the result stream.
func (p *Publisher) PublishResult(ctx context.Context, result *models.AnalysisResult) error {
	record := result.WireRecord()
	record["type"] = "ANALYSIS_RESULT"

	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: record,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish analysis result: %w", err)
	}

	// Trim to prevent unbounded growth.
	p.client.XTrimMaxLen(ctx, p.stream, maxStreamLen)

	return nil
}

// PublishStatus reports device readiness to the display client.
func (p *Publisher) PublishStatus(ctx context.Context, status analyzer.Status) error {
	record := map[string]interface{}{
		"type":           "STATUS",
		"busy":           status.Busy,
		"analysis_count": status.AnalysisCount,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}
	if status.LastResult != nil {
		record["last_verdict"] = string(status.LastResult.Verdict)
		record["last_jal_score"] = status.LastResult.JalScore
	}

	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: record,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish status: %w", err)
	}

	return nil
}
