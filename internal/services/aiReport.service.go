package services

import (
	"context"
	"palcontent/internal/metrics"
	"sync"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

type PollOutcome string

const (
	PollOutcomeReady   PollOutcome = "ready"
	PollOutcomeTimeout PollOutcome = "timeout"
)

// AIReportLookup returns the current report for a submission; an empty string
// means the report has not been generated yet.
type AIReportLookup func(ctx context.Context, submissionID uuid.UUID) (string, error)

type PollResult struct {
	SubmissionID uuid.UUID
	Outcome      PollOutcome
	Report       string
	Attempts     int
	Elapsed      time.Duration
}

// AIReportPoller watches submissions until their AI report appears or the
// window closes. Each submission has at most one poller.
type AIReportPoller struct {
	log      logger.Logger
	interval time.Duration
	timeout  time.Duration
	lookup   AIReportLookup
	onResult func(PollResult)

	mu      sync.Mutex
	pollers map[uuid.UUID]context.CancelFunc
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
}

func NewAIReportPoller(
	interval time.Duration,
	timeout time.Duration,
	lookup AIReportLookup,
	onResult func(PollResult),
) *AIReportPoller {
	ctx, cancel := context.WithCancel(context.Background())

	return &AIReportPoller{
		log:      logger.New("AIReportPoller"),
		interval: interval,
		timeout:  timeout,
		lookup:   lookup,
		onResult: onResult,
		pollers:  make(map[uuid.UUID]context.CancelFunc),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins polling for the submission. It reports false when a poller is
// already running for the id or the poller has been closed.
func (p *AIReportPoller) Start(submissionID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	if _, exists := p.pollers[submissionID]; exists {
		return false
	}

	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	p.pollers[submissionID] = cancel
	p.wg.Add(1)
	metrics.AIReportPollersActive.Inc()

	go p.poll(ctx, cancel, submissionID)

	p.log.Function("Start").Debug("AI report poller started", "submissionID", submissionID)
	return true
}

func (p *AIReportPoller) poll(ctx context.Context, cancel context.CancelFunc, submissionID uuid.UUID) {
	log := p.log.Function("poll")
	started := time.Now()
	attempts := 0

	defer func() {
		cancel()
		p.mu.Lock()
		delete(p.pollers, submissionID)
		p.mu.Unlock()
		metrics.AIReportPollersActive.Dec()
		p.wg.Done()
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Stop and Close cancel without an outcome; only the deadline reports one.
			if ctx.Err() == context.DeadlineExceeded && p.ctx.Err() == nil {
				p.finish(submissionID, attempts+1, started)
			}
			return
		case <-ticker.C:
			attempts++
			report, err := p.lookup(ctx, submissionID)
			if err != nil {
				if ctx.Err() == nil {
					log.Warn("AI report lookup failed", "submissionID", submissionID, "error", err)
				}
				continue
			}
			if report == "" {
				continue
			}
			if ctx.Err() == context.Canceled {
				return
			}

			metrics.AIReportPolls.WithLabelValues(string(PollOutcomeReady)).Inc()
			log.Info("AI report ready", "submissionID", submissionID, "attempts", attempts)
			p.emit(PollResult{
				SubmissionID: submissionID,
				Outcome:      PollOutcomeReady,
				Report:       report,
				Attempts:     attempts,
				Elapsed:      time.Since(started),
			})
			return
		}
	}
}

// finish runs one last lookup at the deadline so a report that landed during
// the final interval is reported as ready instead of timed out.
func (p *AIReportPoller) finish(submissionID uuid.UUID, attempts int, started time.Time) {
	log := p.log.Function("finish")

	ctx, cancel := context.WithTimeout(p.ctx, p.interval)
	defer cancel()

	report, err := p.lookup(ctx, submissionID)
	if err == nil && report != "" {
		metrics.AIReportPolls.WithLabelValues(string(PollOutcomeReady)).Inc()
		log.Info("AI report ready at deadline", "submissionID", submissionID, "attempts", attempts)
		p.emit(PollResult{
			SubmissionID: submissionID,
			Outcome:      PollOutcomeReady,
			Report:       report,
			Attempts:     attempts,
			Elapsed:      time.Since(started),
		})
		return
	}

	metrics.AIReportPolls.WithLabelValues(string(PollOutcomeTimeout)).Inc()
	log.Info("AI report not ready before timeout", "submissionID", submissionID, "attempts", attempts)
	p.emit(PollResult{
		SubmissionID: submissionID,
		Outcome:      PollOutcomeTimeout,
		Attempts:     attempts,
		Elapsed:      time.Since(started),
	})
}

func (p *AIReportPoller) emit(result PollResult) {
	if p.onResult != nil {
		p.onResult(result)
	}
}

func (p *AIReportPoller) IsPolling(submissionID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, exists := p.pollers[submissionID]
	return exists
}

func (p *AIReportPoller) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pollers)
}

// Stop cancels the poller for the submission, if one is running.
func (p *AIReportPoller) Stop(submissionID uuid.UUID) bool {
	p.mu.Lock()
	cancel, exists := p.pollers[submissionID]
	p.mu.Unlock()

	if exists {
		cancel()
	}
	return exists
}

// Close cancels every running poller and waits for them to exit.
func (p *AIReportPoller) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	p.log.Function("Close").Info("AI report poller closed")
	return nil
}
