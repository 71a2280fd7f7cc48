package services

import (
	"context"
	"errors"
	"palcontent/internal/events"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resultRecorder struct {
	mu      sync.Mutex
	results []PollResult
}

func (r *resultRecorder) record(result PollResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *resultRecorder) all() []PollResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PollResult(nil), r.results...)
}

func TestAIReportPoller_StopsOnFirstReport(t *testing.T) {
	var calls atomic.Int32
	lookup := func(ctx context.Context, id uuid.UUID) (string, error) {
		if calls.Add(1) < 3 {
			return "", nil
		}
		return "Customer was locked out; rekeyed two cylinders.", nil
	}

	recorder := &resultRecorder{}
	poller := NewAIReportPoller(10*time.Millisecond, time.Second, lookup, recorder.record)
	defer func() { _ = poller.Close() }()

	id := uuid.New()
	require.True(t, poller.Start(id))

	require.Eventually(t, func() bool { return len(recorder.all()) == 1 }, time.Second, 5*time.Millisecond)
	result := recorder.all()[0]
	assert.Equal(t, PollOutcomeReady, result.Outcome)
	assert.Equal(t, id, result.SubmissionID)
	assert.Equal(t, 3, result.Attempts)
	assert.NotEmpty(t, result.Report)

	assert.Eventually(t, func() bool { return !poller.IsPolling(id) }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(3), calls.Load(), "no lookups after the report arrived")
}

func TestAIReportPoller_TimesOut(t *testing.T) {
	var calls atomic.Int32
	lookup := func(ctx context.Context, id uuid.UUID) (string, error) {
		calls.Add(1)
		return "", nil
	}

	recorder := &resultRecorder{}
	poller := NewAIReportPoller(10*time.Millisecond, 60*time.Millisecond, lookup, recorder.record)
	defer func() { _ = poller.Close() }()

	start := time.Now()
	require.True(t, poller.Start(uuid.New()))

	require.Eventually(t, func() bool { return len(recorder.all()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, PollOutcomeTimeout, recorder.all()[0].Outcome)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	assert.LessOrEqual(t, calls.Load(), int32(7))
}

func TestAIReportPoller_DeadlineRechecksBeforeTimingOut(t *testing.T) {
	var ready atomic.Bool
	lookup := func(ctx context.Context, id uuid.UUID) (string, error) {
		if ready.Load() {
			return "Replaced deadbolt on rear door.", nil
		}
		return "", nil
	}

	recorder := &resultRecorder{}
	// The interval outlasts the window, so only the deadline lookup can see the report.
	poller := NewAIReportPoller(time.Hour, 40*time.Millisecond, lookup, recorder.record)
	defer func() { _ = poller.Close() }()

	id := uuid.New()
	require.True(t, poller.Start(id))
	ready.Store(true)

	require.Eventually(t, func() bool { return len(recorder.all()) == 1 }, time.Second, 5*time.Millisecond)
	result := recorder.all()[0]
	assert.Equal(t, PollOutcomeReady, result.Outcome)
	assert.Equal(t, id, result.SubmissionID)
	assert.Equal(t, "Replaced deadbolt on rear door.", result.Report)
}

func TestAIReportPoller_OnePollerPerSubmission(t *testing.T) {
	lookup := func(ctx context.Context, id uuid.UUID) (string, error) { return "", nil }
	poller := NewAIReportPoller(10*time.Millisecond, time.Second, lookup, nil)
	defer func() { _ = poller.Close() }()

	id := uuid.New()
	assert.True(t, poller.Start(id))
	assert.False(t, poller.Start(id))
	assert.True(t, poller.Start(uuid.New()))
	assert.Equal(t, 2, poller.ActiveCount())
}

func TestAIReportPoller_LookupErrorsKeepPolling(t *testing.T) {
	var calls atomic.Int32
	lookup := func(ctx context.Context, id uuid.UUID) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("connection reset")
		}
		return "report", nil
	}

	recorder := &resultRecorder{}
	poller := NewAIReportPoller(10*time.Millisecond, time.Second, lookup, recorder.record)
	defer func() { _ = poller.Close() }()

	require.True(t, poller.Start(uuid.New()))
	require.Eventually(t, func() bool { return len(recorder.all()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, PollOutcomeReady, recorder.all()[0].Outcome)
}

func TestAIReportPoller_StopAndClose(t *testing.T) {
	lookup := func(ctx context.Context, id uuid.UUID) (string, error) { return "", nil }
	recorder := &resultRecorder{}
	poller := NewAIReportPoller(10*time.Millisecond, time.Minute, lookup, recorder.record)

	first, second := uuid.New(), uuid.New()
	require.True(t, poller.Start(first))
	require.True(t, poller.Start(second))

	assert.True(t, poller.Stop(first))
	assert.Eventually(t, func() bool { return !poller.IsPolling(first) }, time.Second, 5*time.Millisecond)
	assert.False(t, poller.Stop(uuid.New()))

	require.NoError(t, poller.Close())
	assert.Equal(t, 0, poller.ActiveCount())
	assert.False(t, poller.Start(uuid.New()), "closed poller refuses new work")
	assert.Empty(t, recorder.all(), "cancellation emits no outcome")
}

func TestAIReportOutcomePublisher(t *testing.T) {
	publisher := &capturePublisher{}
	franchiseeID, technicianID := uuid.New(), uuid.New()
	submissionID := uuid.New()

	publish := AIReportOutcomePublisher(publisher, func(ctx context.Context, id uuid.UUID) (uuid.UUID, uuid.UUID, error) {
		assert.Equal(t, submissionID, id)
		return franchiseeID, technicianID, nil
	})

	publish(PollResult{SubmissionID: submissionID, Outcome: PollOutcomeReady, Report: "done", Attempts: 2})
	publish(PollResult{SubmissionID: submissionID, Outcome: PollOutcomeTimeout, Attempts: 10})

	published := publisher.all()
	require.Len(t, published, 2)
	assert.Equal(t, events.AI_REPORTS_CHANNEL, published[0].Channel)
	assert.Equal(t, events.AI_REPORT_READY, published[0].Type)
	assert.Equal(t, "done", published[0].Data["aiReport"])
	assert.Equal(t, franchiseeID, *published[0].FranchiseeID)
	require.NotNil(t, published[0].TechnicianID, "report text is scoped to its technician")
	assert.Equal(t, technicianID, *published[0].TechnicianID)
	assert.Equal(t, events.AI_REPORT_TIMEOUT, published[1].Type)
	_, hasReport := published[1].Data["aiReport"]
	assert.False(t, hasReport)
}

func TestAIReportOutcomePublisher_UnroutedResultIsDropped(t *testing.T) {
	publisher := &capturePublisher{}
	publish := AIReportOutcomePublisher(publisher, func(ctx context.Context, id uuid.UUID) (uuid.UUID, uuid.UUID, error) {
		return uuid.Nil, uuid.Nil, errors.New("submission gone")
	})

	publish(PollResult{SubmissionID: uuid.New(), Outcome: PollOutcomeReady, Report: "private notes"})

	assert.Empty(t, publisher.all(), "an event without an audience would reach every connected client")
}
