package core

import (
	"context"
	"fmt"

	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ReportMailer delivers a rendered report to a recipient.
type ReportMailer interface {
	SendReport(ctx context.Context, to, subject, body string) error
}

// SESReportMailer sends reports as plain-text email through AWS SES.
type SESReportMailer struct {
	client *ses.Client
	sender string
}

func NewSESReportMailer(client *ses.Client, sender string) *SESReportMailer {
	return &SESReportMailer{client: client, sender: sender}
}

func (s *SESReportMailer) SendReport(ctx context.Context, to, subject, body string) error {
	tracer := otel.Tracer("ses-report-mailer")
	ctx, span := tracer.Start(ctx, "send_report", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	// Enrich span with the organization if available in context
	if orgID := telemetry.GetOrganizationIDFromContext(ctx); orgID != "" {
		span.SetAttributes(attribute.String("app.organizationId", orgID))
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(body),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send report email: %w", err)
	}
	return nil
}
