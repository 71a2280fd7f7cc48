package services

import (
	"context"
	"palcontent/internal/metrics"
	"palcontent/internal/types"
	"palcontent/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
)

const (
	MaxClientLogBatch   = 100
	maxClientLogMessage = 2000
	maxClientLogStack   = 8000
)

type LoggingService struct {
	log    logger.Logger
	client logger.Logger
}

func NewLoggingService() *LoggingService {
	return &LoggingService{
		log:    logger.New("loggingService"),
		client: logger.New("client"),
	}
}

// ProcessLogBatch re-emits dashboard log entries as structured server logs.
// Entries past the batch limit or with an unknown level or empty message are dropped.
func (s *LoggingService) ProcessLogBatch(
	ctx context.Context,
	batch types.LogBatchRequest,
	userID string,
) *types.LogBatchResponse {
	log := s.log.TraceFromContext(ctx).Function("ProcessLogBatch")

	response := &types.LogBatchResponse{Success: true}
	if len(batch.Logs) == 0 {
		return response
	}

	entries := batch.Logs
	if len(entries) > MaxClientLogBatch {
		response.Dropped += len(entries) - MaxClientLogBatch
		entries = entries[:MaxClientLogBatch]
	}

	for _, entry := range entries {
		message, _ := utils.CleanUTF8(entry.Message)
		message = utils.Truncate(message, maxClientLogMessage)
		if message == "" || !validLogLevel(entry.Level) {
			response.Dropped++
			continue
		}

		s.emit(entry.Level, message, clientLogFields(entry, batch.SessionID, userID))
		metrics.ClientLogsIngested.WithLabelValues(string(entry.Level)).Inc()
		response.Processed++
	}

	if response.Dropped > 0 {
		log.Debug("Dropped client log entries", "dropped", response.Dropped, "sessionID", batch.SessionID)
	}

	return response
}

func validLogLevel(level types.LogLevel) bool {
	switch level {
	case types.LogLevelDebug, types.LogLevelInfo, types.LogLevelWarn, types.LogLevelError:
		return true
	}
	return false
}

func (s *LoggingService) emit(level types.LogLevel, message string, fields []any) {
	switch level {
	case types.LogLevelDebug:
		s.client.Debug(message, fields...)
	case types.LogLevelInfo:
		s.client.Info(message, fields...)
	case types.LogLevelWarn:
		s.client.Warn(message, fields...)
	case types.LogLevelError:
		_ = s.client.Error(message, fields...)
	}
}

func clientLogFields(entry types.LogEntry, sessionID string, userID string) []any {
	fields := []any{
		"source", "client",
		"clientTimestamp", entry.Timestamp,
		"userID", userID,
		"sessionID", sessionID,
		"url", entry.Metadata.URL,
		"userAgent", entry.Metadata.UserAgent,
	}
	if entry.Metadata.Dashboard != "" {
		fields = append(fields, "dashboard", entry.Metadata.Dashboard)
	}

	if entry.Context == nil {
		return fields
	}

	logContext := entry.Context
	if logContext.Action != "" {
		fields = append(fields, "action", logContext.Action)
	}
	if logContext.Component != "" {
		fields = append(fields, "component", logContext.Component)
	}
	if logContext.SubmissionID != "" {
		fields = append(fields, "submissionID", logContext.SubmissionID)
	}
	if logContext.TraceID != "" {
		fields = append(fields, "clientTraceID", logContext.TraceID)
	}
	if logContext.Duration != nil {
		fields = append(fields, "durationMs", *logContext.Duration)
	}
	if logContext.Error != nil {
		fields = append(fields,
			"errorMessage", logContext.Error.Message,
			"errorName", logContext.Error.Name,
			"errorStack", utils.Truncate(logContext.Error.Stack, maxClientLogStack),
		)
	}

	return fields
}
