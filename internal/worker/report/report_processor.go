package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"attendance.service/internal/core"
	"attendance.service/internal/export"
	"attendance.service/internal/ports/messaging"
)

// maxSendAttempts bounds the in-process retry of one SES send before the
// job is handed back to the queue for a delayed redelivery.
const maxSendAttempts = 4

// Processor handles jobs from the export queue: fetch the requested
// window, derive the summary, render the CSV, and mail it. SES sends are
// retried in-process with exponential backoff; persistent failures fall
// back to queue-level retry with growing visibility delays.
type Processor struct {
	queries *core.QueryController
	stats   *core.StatsEngine
	mailer  core.ReportMailer

	// completed tracks job IDs already mailed by this process, so a
	// redelivered message does not send a second email. Best effort:
	// a restart forgets it, and SQS may still redeliver across workers.
	mu        sync.Mutex
	completed map[string]struct{}
	attempts  map[string]int
}

// NewProcessor sets up a processor for the export queue.
func NewProcessor(queries *core.QueryController, stats *core.StatsEngine, mailer core.ReportMailer) *Processor {
	return &Processor{
		queries:   queries,
		stats:     stats,
		mailer:    mailer,
		completed: make(map[string]struct{}),
		attempts:  make(map[string]int),
	}
}

// Process is the core logic for handling one export job message.
func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var job messaging.ExportRequested
	if msg.Body == nil {
		return false, 0, fmt.Errorf("empty message body")
	}
	if err := json.Unmarshal([]byte(*msg.Body), &job); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal export job")
		return false, 0, err // Do not retry on malformed message
	}

	if p.alreadyCompleted(job.JobID) {
		log.Ctx(ctx).Info().Str("job_id", job.JobID).Msg("Export job already mailed, skipping")
		return false, 0, nil
	}

	body, err := p.renderSummary(ctx, job)
	if err != nil {
		delay := p.nextDelay(job.JobID)
		return true, delay, fmt.Errorf("failed to build report for job %s: %w", job.JobID, err)
	}

	subject := fmt.Sprintf("Attendance summary for %s", job.OrganizationName)
	sendOnce := func() (struct{}, error) {
		return struct{}{}, p.mailer.SendReport(ctx, job.Recipient, subject, body)
	}
	_, err = backoff.Retry(ctx, sendOnce,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxSendAttempts),
	)
	if err != nil {
		delay := p.nextDelay(job.JobID)
		return true, delay, fmt.Errorf("failed to mail report for job %s: %w", job.JobID, err)
	}

	p.markCompleted(job.JobID)
	log.Ctx(ctx).Info().Str("job_id", job.JobID).Str("recipient", job.Recipient).
		Msg("Export report mailed")
	return false, 0, nil
}

// renderSummary fetches the job's window and renders the summary CSV into
// the email body. Buffered, so a failure produces no partial report.
func (p *Processor) renderSummary(ctx context.Context, job messaging.ExportRequested) (string, error) {
	opts := core.WindowOptions{StartDate: job.StartDate, EndDate: job.EndDate}
	events, _, err := p.queries.FetchWindow(ctx, job.OrganizationID, opts)
	if err != nil {
		return "", err
	}

	rep := export.BuildSummary(p.stats.ComputeStats(events))
	var buf bytes.Buffer
	if err := export.Serialize(&buf, rep, export.FormatCSV); err != nil {
		return "", err
	}

	window := "all recent activity"
	if !job.StartDate.IsZero() && !job.EndDate.IsZero() {
		window = fmt.Sprintf("%s to %s",
			job.StartDate.Format("2006-01-02"), job.EndDate.Format("2006-01-02"))
	}
	return fmt.Sprintf("Attendance summary (%s):\n\n%s", window, buf.String()), nil
}

func (p *Processor) alreadyCompleted(jobID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.completed[jobID]
	return ok
}

func (p *Processor) markCompleted(jobID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed[jobID] = struct{}{}
	delete(p.attempts, jobID)
}

// nextDelay grows the queue-level retry delay exponentially per job.
func (p *Processor) nextDelay(jobID string) int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts[jobID]++
	return calculateBackoff(p.attempts[jobID])
}

// calculateBackoff determines how long a failed job stays invisible before
// the queue redelivers it. Doubles with each retry, capped at an hour.
func calculateBackoff(retryCount int) int32 {
	delay := int32(math.Pow(2, float64(retryCount)) * 10)
	if delay > 3600 {
		return 3600
	}
	return delay
}
