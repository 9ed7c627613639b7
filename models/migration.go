package models

import (
	"log"

	"github.com/reboothq/reboot_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&Project{}, &JournalEntry{},
		&ShopItem{}, &ShopOrder{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
