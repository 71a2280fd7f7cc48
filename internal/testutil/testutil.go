// Package testutil builds in-memory databases and seed rows for package tests.
package testutil

import (
	"fmt"
	"palcontent/internal/database"
	"palcontent/internal/events"
	"palcontent/internal/models"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// NewDB opens a private sqlite database migrated with every model. Cache
// clients are left nil, which disables caching in the repositories.
func NewDB(t *testing.T) database.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := database.DB{SQL: gormDB}
	require.NoError(t, db.MigrateModels())
	return db
}

func SeedFranchisee(t *testing.T, db database.DB, prefix string) *models.Franchisee {
	t.Helper()
	franchisee := &models.Franchisee{
		BusinessName:    prefix + " Locksmiths",
		CodePrefix:      prefix,
		Phone:           "(555) 000-1000",
		GoogleReviewURL: "https://g.page/r/" + prefix + "/review",
		IsActive:        true,
	}
	require.NoError(t, db.SQL.Create(franchisee).Error)
	return franchisee
}

func SeedTechnician(
	t *testing.T,
	db database.DB,
	franchisee *models.Franchisee,
	code string,
	phone string,
) *models.Technician {
	t.Helper()
	technician := &models.Technician{
		FranchiseeID: franchisee.ID,
		Name:         "Tech " + code,
		Phone:        phone,
		SubmitCode:   code,
		IsActive:     true,
	}
	require.NoError(t, db.SQL.Create(technician).Error)
	return technician
}

func SeedUser(
	t *testing.T,
	db database.DB,
	role models.UserRole,
	franchiseeID *uuid.UUID,
	technicianID *uuid.UUID,
) *models.User {
	t.Helper()
	email := uuid.NewString()[:8] + "@example.com"
	user := &models.User{
		AuthUserID:   uuid.NewString(),
		Email:        &email,
		FullName:     "Test " + string(role),
		Role:         role,
		FranchiseeID: franchiseeID,
		TechnicianID: technicianID,
		IsActive:     true,
	}
	require.NoError(t, db.SQL.Create(user).Error)
	return user
}

// Recorder is an events.Publisher that keeps what it was given.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *Recorder) Publish(channel events.Channel, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.Channel = channel
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func (r *Recorder) Types() []events.MessageType {
	published := r.Events()
	types := make([]events.MessageType, 0, len(published))
	for _, event := range published {
		types = append(types, event.Type)
	}
	return types
}
