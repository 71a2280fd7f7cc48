package database

import (
	"palcontent/internal/models"

	logger "github.com/Bparsons0904/goLogger"
)

// Models lists every table, parents before children.
func Models() []any {
	return []any{
		&models.Franchisee{},
		&models.User{},
		&models.Technician{},
		&models.JobSubmission{},
		&models.SMSConfig{},
		&models.Testimonial{},
		&models.ReviewRequest{},
	}
}

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	for _, model := range Models() {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("Failed to migrate model", err, "model", model)
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes creates composite indexes used by the review dashboards
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")
	log.Info("Creating additional database indexes")

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_job_submissions_franchisee_status ON job_submissions(franchisee_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_job_submissions_technician_submitted ON job_submissions(technician_id, submitted_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_job_submissions_service_category ON job_submissions(service_category)",
		"CREATE INDEX IF NOT EXISTS idx_technicians_franchisee_active ON technicians(franchisee_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_testimonials_franchisee_status ON testimonials(franchisee_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_review_requests_franchisee_created ON review_requests(franchisee_id, created_at DESC)",
	}

	for _, indexSQL := range indexes {
		if err := db.SQL.Exec(indexSQL).Error; err != nil {
			log.Warn("Failed to create index", "sql", indexSQL, "error", err)
		}
	}

	log.Info("Additional database indexes created")
	return nil
}
