package main

import (
	"log"

	"dar-review-api/config"
	"dar-review-api/models"
)

func main() {
	config.LoadEnv()
	settings := config.LoadSettings()

	db, err := config.OpenDB(settings)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Application{},
		&models.ApplicationContent{},
		&models.RevisionRequest{},
		&models.Action{},
		&models.ReminderMark{},
	); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Println("DAR tables are up to date")
}
