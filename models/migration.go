package models

import (
	"log"

	"bitbucket.org/arcadeworks/arcade_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Business{},
		&User{},
		&Venue{},
		&Machine{}, &MachinePaywaveTerminal{},
		&Prize{}, &Part{},
		&MachineStock{}, &StockMovement{},
		&MachineReport{},
		&Report{},
		&MaintenanceEntry{},
		&EquipmentHire{},
		&History{},
		&MachineEventRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
