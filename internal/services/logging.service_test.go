package services

import (
	"context"
	"palcontent/internal/types"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggingService_ProcessLogBatch(t *testing.T) {
	service := NewLoggingService()
	duration := int64(120)

	batch := types.LogBatchRequest{
		SessionID: "session-1",
		Logs: []types.LogEntry{
			{Level: types.LogLevelInfo, Message: "wizard step completed", Context: &types.LogContext{
				Action:   "step_complete",
				Duration: &duration,
			}},
			{Level: types.LogLevelError, Message: "upload failed", Context: &types.LogContext{
				Error: &types.LogErrorContext{Message: "network", Stack: strings.Repeat("x", 9000)},
			}},
			{Level: "fatal", Message: "unknown level"},
			{Level: types.LogLevelWarn, Message: ""},
			{Level: types.LogLevelDebug, Message: "bad\x00bytes"},
		},
	}

	response := service.ProcessLogBatch(context.Background(), batch, "user-1")
	assert.True(t, response.Success)
	assert.Equal(t, 3, response.Processed)
	assert.Equal(t, 2, response.Dropped)
}

func TestLoggingService_BatchLimit(t *testing.T) {
	service := NewLoggingService()

	logs := make([]types.LogEntry, MaxClientLogBatch+25)
	for i := range logs {
		logs[i] = types.LogEntry{Level: types.LogLevelDebug, Message: "tick"}
	}

	response := service.ProcessLogBatch(context.Background(), types.LogBatchRequest{Logs: logs}, "")
	assert.Equal(t, MaxClientLogBatch, response.Processed)
	assert.Equal(t, 25, response.Dropped)

	empty := service.ProcessLogBatch(context.Background(), types.LogBatchRequest{}, "")
	assert.True(t, empty.Success)
	assert.Zero(t, empty.Processed)
}

func TestClientLogFields(t *testing.T) {
	fields := clientLogFields(types.LogEntry{
		Metadata: types.LogMetadata{URL: "/franchisee", Dashboard: "franchisee"},
		Context:  &types.LogContext{SubmissionID: "sub-1"},
	}, "session-1", "user-1")

	asMap := map[string]any{}
	for i := 0; i+1 < len(fields); i += 2 {
		asMap[fields[i].(string)] = fields[i+1]
	}
	assert.Equal(t, "franchisee", asMap["dashboard"])
	assert.Equal(t, "sub-1", asMap["submissionID"])
	assert.Equal(t, "session-1", asMap["sessionID"])
	_, hasError := asMap["errorMessage"]
	assert.False(t, hasError)
}
