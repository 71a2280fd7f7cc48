package initialize

import (
	"palcontent/config"
	"palcontent/internal/models"
	"slices"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

const serviceTypesTable = "service_types"

type ServiceTypeRow struct {
	Category  string
	Name      string
	SortOrder int
}

func InitializeTables(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing essential production data")

	if err := initializeServiceTypes(db, log); err != nil {
		return log.Err("failed to initialize service types", err)
	}

	if err := initializeSMSConfigs(db, config, log); err != nil {
		return log.Err("failed to initialize SMS configs", err)
	}

	log.Info("Table initialization complete")
	return nil
}

// ServiceTypeRows flattens the category catalogue in a stable order.
func ServiceTypeRows() []ServiceTypeRow {
	categories := make([]string, 0, len(models.ServiceTypes))
	for category := range models.ServiceTypes {
		categories = append(categories, string(category))
	}
	slices.Sort(categories)

	rows := make([]ServiceTypeRow, 0)
	for _, category := range categories {
		for i, name := range models.ServiceTypes[models.ServiceCategory(category)] {
			rows = append(rows, ServiceTypeRow{Category: category, Name: name, SortOrder: i})
		}
	}
	return rows
}

func initializeServiceTypes(db *gorm.DB, log logger.Logger) error {
	if !db.Migrator().HasTable(serviceTypesTable) {
		log.Info("Service types table missing, skipping reference data")
		return nil
	}

	rows := ServiceTypeRows()
	for _, row := range rows {
		err := db.Exec(
			"INSERT INTO service_types (category, name, sort_order) VALUES (?, ?, ?) "+
				"ON CONFLICT (category, name) DO UPDATE SET sort_order = EXCLUDED.sort_order",
			row.Category, row.Name, row.SortOrder,
		).Error
		if err != nil {
			return log.Err("failed to upsert service type", err, "category", row.Category, "name", row.Name)
		}
	}

	log.Info("Service types initialized", "count", len(rows))
	return nil
}

// initializeSMSConfigs gives every franchise a disabled config on the
// default provider so the dashboard always has templates to edit.
func initializeSMSConfigs(db *gorm.DB, config config.Config, log logger.Logger) error {
	var franchisees []models.Franchisee
	if err := db.Find(&franchisees).Error; err != nil {
		return log.Err("failed to list franchisees", err)
	}

	provider := models.SMSProvider(config.SMSDefaultProvider)
	if provider == "" {
		provider = models.SMSProviderTwilio
	}

	created := 0
	for _, franchisee := range franchisees {
		var count int64
		if err := db.Model(&models.SMSConfig{}).Where("franchisee_id = ?", franchisee.ID).Count(&count).Error; err != nil {
			return log.Err("failed to check SMS config", err, "franchiseeID", franchisee.ID)
		}
		if count > 0 {
			continue
		}
		smsConfig := &models.SMSConfig{FranchiseeID: franchisee.ID, Provider: provider}
		if err := db.Create(smsConfig).Error; err != nil {
			return log.Err("failed to create SMS config", err, "franchiseeID", franchisee.ID)
		}
		created++
	}

	log.Info("SMS configs initialized", "created", created)
	return nil
}
