package mysql

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hoffination/open-social-server/internal/model"
)

// InitDB opens the MySQL connection and keeps the schema current.
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&model.Content{},
		&model.User{},
		&model.RallyInvite{},
		&model.Notification{},
	); err != nil {
		return nil, err
	}
	return db, nil
}
