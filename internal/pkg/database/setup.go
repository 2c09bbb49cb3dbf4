package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/TierFox/app/models"
	"github.com/ManuelReschke/TierFox/internal/pkg/env"
	"github.com/ManuelReschke/TierFox/internal/pkg/logging"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var db *gorm.DB

// DSN builds the MySQL data source name from the environment.
func DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		env.GetEnv("DB_USER", "tierfox"),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", "tierfox"),
	)
}

// SetupDatabase connects with retries and migrates the schema.
func SetupDatabase() {
	log := logging.L()
	gormLog := logger.Default.LogMode(logger.Warn)
	if env.IsDev() {
		gormLog = logger.Default.LogMode(logger.Info)
	}

	var err error
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       DSN(),
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), &gorm.Config{Logger: gormLog, NowFunc: func() time.Time { return time.Now().UTC() }})
		if err == nil {
			if err = Migrate(db); err != nil {
				panic(fmt.Errorf("auto migrate: %w", err))
			}
			return
		}

		log.Warn("failed to connect to database", zap.Int("try", i+1), zap.Int("of", maxRetries), zap.Error(err))
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// Migrate creates or updates the tables of all models.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.Creator{},
		&models.Post{},
		&models.TierCatalog{},
		&models.Subscription{},
		&models.Category{},
		&models.Hashtag{},
	)
}

// GetDB returns the database connection
func GetDB() *gorm.DB {
	return db
}

// SetDB replaces the connection, used by tests.
func SetDB(conn *gorm.DB) {
	db = conn
}
