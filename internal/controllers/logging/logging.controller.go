package loggingController

import (
	"context"
	"palcontent/internal/services"
	"palcontent/internal/types"

	logger "github.com/Bparsons0904/goLogger"
)

type logProcessor interface {
	ProcessLogBatch(ctx context.Context, batch types.LogBatchRequest, userID string) *types.LogBatchResponse
}

type LoggingController struct {
	loggingService logProcessor
	log            logger.Logger
}

type LoggingControllerInterface interface {
	ProcessLogBatch(ctx context.Context, req types.LogBatchRequest, userID string) (*types.LogBatchResponse, error)
}

func New(services services.Service) LoggingControllerInterface {
	return &LoggingController{
		loggingService: services.Logging,
		log:            logger.New("loggingController"),
	}
}

// ProcessLogBatch forwards a dashboard log batch to structured logging
func (c *LoggingController) ProcessLogBatch(
	ctx context.Context,
	req types.LogBatchRequest,
	userID string,
) (*types.LogBatchResponse, error) {
	log := c.log.TraceFromContext(ctx).Function("ProcessLogBatch")

	if len(req.Logs) == 0 {
		return &types.LogBatchResponse{
			Success:   true,
			Processed: 0,
		}, nil
	}

	if req.SessionID == "" {
		return nil, log.Err("missing session", types.NewFieldError("sessionId is required"),
			"userID", userID,
			"logCount", len(req.Logs))
	}

	return c.loggingService.ProcessLogBatch(ctx, req, userID), nil
}
