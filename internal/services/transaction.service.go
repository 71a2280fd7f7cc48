package services

import (
	"context"
	"palcontent/internal/database"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

// TransactionService runs units of work that touch more than one table,
// such as provisioning a technician login together with the roster row.
type TransactionService struct {
	db  database.DB
	log logger.Logger
}

func NewTransactionService(db database.DB) *TransactionService {
	return &TransactionService{
		db:  db,
		log: logger.New("TransactionService"),
	}
}

// Execute commits when fn returns nil and rolls back otherwise. A panic in
// fn is rolled back and returned as an error.
func (ts *TransactionService) Execute(
	ctx context.Context,
	fn func(ctx context.Context, tx *gorm.DB) error,
) (err error) {
	log := ts.log.TraceFromContext(ctx).Function("Execute")

	tx := ts.db.SQLWithContext(ctx).Begin()
	if tx.Error != nil {
		return log.Err("failed to begin transaction", tx.Error)
	}

	finished := false
	defer func() {
		if finished {
			return
		}
		recovered := recover()
		if rollbackErr := tx.Rollback().Error; rollbackErr != nil {
			log.Er("failed to roll back transaction", rollbackErr, "cause", err)
		}
		if recovered != nil {
			err = log.Error("transaction aborted by panic", "panic", recovered)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}

	finished = true
	if err = tx.Commit().Error; err != nil {
		return log.Err("failed to commit transaction", err)
	}
	return nil
}
