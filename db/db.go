package db

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"toolcabinet-backend/models"
)

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := Migrate(conn); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return conn
}

func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&models.City{},
		&models.EquipmentStock{},
		&models.EquipmentRequest{},
		&models.RequestItem{},
		&models.BorrowRecord{},
		&models.ManagerSubscription{},
		&models.UnlockLog{},
	); err != nil {
		return err
	}

	// Open loans by phone is the hot path of the overdue lockout check.
	if err := conn.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_open_by_phone
	  ON %s (normalized_phone, borrowed_at)
	  WHERE status = 'borrowed';
	`, models.BorrowTable, models.BorrowTable)).Error; err != nil {
		return err
	}

	// The overdue sweep scans open loans oldest-first.
	if err := conn.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_open_borrowedat
	  ON %s (borrowed_at)
	  WHERE status = 'borrowed';
	`, models.BorrowTable, models.BorrowTable)).Error; err != nil {
		return err
	}

	return nil
}
