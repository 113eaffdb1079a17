package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Producer publishes export jobs through any MessageSender.
type Producer struct {
	sender         MessageSender
	exportQueueURL string
}

func NewProducer(sender MessageSender, exportQueueURL string) *Producer {
	return &Producer{
		sender:         sender,
		exportQueueURL: exportQueueURL,
	}
}

// NewSQSProducer wires the producer to AWS SQS.
func NewSQSProducer(client SQSClient, exportQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, exportQueueURL)
}

// PublishExport enqueues one export job.
func (p *Producer) PublishExport(ctx context.Context, event ExportRequested) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal export event: %w", err)
	}

	// Enrich the current span with the organization if available
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() && event.OrganizationID != "" {
		span.SetAttributes(
			attribute.String("app.organizationId", event.OrganizationID),
			attribute.String("app.exportJobId", event.JobID),
		)
	}

	if err := p.sender.SendMessage(ctx, p.exportQueueURL, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
