package main

import (
	"log"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/model"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/config"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/database"
)

func main() {
	config.Init()

	dsn := database.BuildDSN(
		config.Global.DB.Host,
		config.Global.DB.User,
		config.Global.DB.Password,
		config.Global.DB.Name,
		config.Global.DB.Port,
	)
	db, err := database.ConnectPostgres(dsn)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		log.Fatalf("auto migrate failed: %v", err)
	}
	log.Println("Migration done")
}
