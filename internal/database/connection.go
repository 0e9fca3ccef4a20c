// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/craftlink/partner-backend/internal/config"
	"github.com/craftlink/partner-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		}
	} else {
		gormConfig = &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Info),
			TranslateError: true,
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.PartnerLead{},
		&models.Partner{},
		&models.PartnerApplication{},
		&models.PartnerExpertise{},
		&models.Service{},
		&models.Order{},
		&models.TrialService{},
		&models.ServicePartnerAssignment{},
		&models.AssignmentRotation{},
		&models.StatusHistory{},
		&models.AdminSettings{},
		&models.AuditLog{},
		&models.Notification{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)",
		"CREATE INDEX IF NOT EXISTS idx_users_type_status ON users(user_type, status)",

		// Lead indexes
		"CREATE INDEX IF NOT EXISTS idx_partner_leads_email ON partner_leads(LOWER(email))",
		"CREATE INDEX IF NOT EXISTS idx_partner_leads_status ON partner_leads(status)",
		"CREATE INDEX IF NOT EXISTS idx_partner_leads_token ON partner_leads(invitation_token)",

		// Partner indexes
		"CREATE INDEX IF NOT EXISTS idx_partners_status ON partners(status)",
		"CREATE INDEX IF NOT EXISTS idx_partners_status_load ON partners(status, active_assignments)",
		"CREATE INDEX IF NOT EXISTS idx_partners_created_at ON partners(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_partner_expertise_category ON partner_expertises(category_id)",

		// Order and assignment indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_assignments_partner_status ON service_partner_assignments(partner_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_assignments_order_status ON service_partner_assignments(order_id, status)",

		// Trial indexes
		"CREATE INDEX IF NOT EXISTS idx_trial_services_partner_status ON trial_services(partner_id, status)",

		// Ledger and admin indexes
		"CREATE INDEX IF NOT EXISTS idx_status_history_entity ON status_history(entity_type, entity_id, sequence)",
		"CREATE INDEX IF NOT EXISTS idx_status_history_created ON status_history(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_audience_status ON notifications(audience, status)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_admin_settings_category ON admin_settings(category, key)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	// At most one active assignment may occupy an order. Concurrent duplicate
	// order events race on this index and the loser returns the winner's
	// assignment, so unlike the lookup indexes above this one is mandatory.
	uniqueActive := "CREATE UNIQUE INDEX IF NOT EXISTS idx_assignments_order_active " +
		"ON service_partner_assignments(order_id) WHERE status IN ('assigned', 'in_progress')"
	if err := db.Exec(uniqueActive).Error; err != nil {
		return fmt.Errorf("failed to create unique active-assignment index: %w", err)
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	// Create default admin user
	var adminCount int64
	db.Model(&models.User{}).Where("user_type = ?", models.UserTypeAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Username: "admin",
			Email:    "admin@craftlink.io",
			UserType: models.UserTypeAdmin,
			Status:   models.UserStatusActive,
			ProfileData: models.JSONB{
				"first_name": "System",
				"last_name":  "Administrator",
				"role":       "super_admin",
			},
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Println("Default admin user created successfully")
	}

	// Create default platform settings
	defaultSettings := []models.AdminSettings{
		{
			Category:    "assignment",
			Key:         "strategy",
			Value:       models.JSONB{"value": "combined"},
			DataType:    "string",
			Description: "Partner selection strategy: rating, round_robin or combined",
		},
		{
			Category:    "assignment",
			Key:         "max_active_assignments",
			Value:       models.JSONB{"value": 3},
			DataType:    "integer",
			Description: "Maximum concurrent active assignments per partner",
		},
		{
			Category:    "trial",
			Key:         "quality_threshold",
			Value:       models.JSONB{"value": 4.0},
			DataType:    "float",
			Description: "Minimum average quality rating for trial approval",
		},
		{
			Category:    "trial",
			Key:         "on_time_threshold",
			Value:       models.JSONB{"value": 0.80},
			DataType:    "float",
			Description: "Minimum on-time delivery rate for trial approval",
		},
		{
			Category:    "trial",
			Key:         "failure_cap",
			Value:       models.JSONB{"value": 2},
			DataType:    "integer",
			Description: "Failed trials at or above this count force rejection",
		},
		{
			Category:    "commission",
			Key:         "percentage_rate",
			Value:       models.JSONB{"value": 0.15},
			DataType:    "float",
			Description: "Default percentage commission rate",
		},
	}

	for _, setting := range defaultSettings {
		var count int64
		db.Model(&models.AdminSettings{}).Where("category = ? AND key = ?", setting.Category, setting.Key).Count(&count)

		if count == 0 {
			var admin models.User
			if err := db.Where("user_type = ?", models.UserTypeAdmin).First(&admin).Error; err == nil {
				setting.UpdatedBy = admin.ID
				if err := db.Create(&setting).Error; err != nil {
					log.Printf("Warning: Failed to create setting %s.%s: %v", setting.Category, setting.Key, err)
				}
			}
		}
	}

	log.Println("Initial data seeding completed")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
