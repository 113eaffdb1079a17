package sqslive

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports"
	"attendance.service/pkg/logger"
	"attendance.service/pkg/telemetry"
)

// SQSClient is the subset of the AWS SQS client the live source needs.
type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Source is an SQS-backed live event source. Each Subscribe call starts a
// long-poll loop delivering decoded events to the handler one at a time.
// SQS is at-least-once: duplicate deliveries reach the handler and are
// absorbed by the core's idempotent merge, so messages are deleted after
// handling rather than two-phase tracked.
type Source struct {
	client   SQSClient
	queueURL string
}

var _ ports.LiveEventSource = (*Source)(nil)

// NewSource creates a live source polling the given queue.
func NewSource(client SQSClient, queueURL string) *Source {
	return &Source{client: client, queueURL: queueURL}
}

// Subscribe launches the polling goroutine. The returned cancel function
// stops it; cancelling the parent context does too.
func (s *Source) Subscribe(ctx context.Context, handler func(model.RawEvent)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	go s.poll(ctx, handler)
	return cancel, nil
}

func (s *Source) poll(ctx context.Context, handler func(model.RawEvent)) {
	log.Info().Str("queue", s.queueURL).Msg("Live event subscription started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Live event subscription stopped")
			return
		default:
			output, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
				QueueUrl:              &s.queueURL,
				MaxNumberOfMessages:   10,
				WaitTimeSeconds:       20,
				MessageAttributeNames: []string{"All"},
			})
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Error().Err(err).Msg("Error receiving live events")
				continue
			}
			for _, msg := range output.Messages {
				msgCtx, span := telemetry.StartSpanFromSQSMessage(ctx, msg)
				msgCtx = logger.EnrichContextWithLogger(msgCtx)

				var raw model.RawEvent
				if msg.Body == nil || json.Unmarshal([]byte(*msg.Body), &raw) != nil {
					log.Ctx(msgCtx).Error().Msg("Dropping undecodable live event")
				} else {
					handler(raw)
				}

				// Delete regardless of handler outcome; rejected events
				// (duplicates, wrong organization) are final.
				_, _ = s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
					QueueUrl:      &s.queueURL,
					ReceiptHandle: msg.ReceiptHandle,
				})
				span.End()
			}
		}
	}
}
