package loggingController

import (
	"context"
	"errors"
	"palcontent/internal/services"
	"palcontent/internal/types"
	"testing"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController() *LoggingController {
	return &LoggingController{
		loggingService: services.NewLoggingService(),
		log:            logger.New("loggingController"),
	}
}

func TestProcessLogBatch(t *testing.T) {
	controller := newController()

	response, err := controller.ProcessLogBatch(context.Background(), types.LogBatchRequest{}, "user-1")
	require.NoError(t, err)
	assert.True(t, response.Success)
	assert.Zero(t, response.Processed)

	_, err = controller.ProcessLogBatch(context.Background(), types.LogBatchRequest{
		Logs: []types.LogEntry{{Level: types.LogLevelInfo, Message: "opened review queue"}},
	}, "user-1")
	assert.True(t, errors.Is(err, types.ErrValidation))

	response, err = controller.ProcessLogBatch(context.Background(), types.LogBatchRequest{
		SessionID: "session-1",
		Logs: []types.LogEntry{
			{Level: types.LogLevelInfo, Message: "opened review queue"},
			{Level: types.LogLevelError, Message: "upload failed"},
			{Level: "trace", Message: "dropped"},
		},
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, response.Processed)
	assert.Equal(t, 1, response.Dropped)
}
