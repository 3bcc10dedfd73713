package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/arcadeworks/arcade_backend/config"
	"bitbucket.org/arcadeworks/arcade_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maintenanceHistoryTable = "machine_maintenance_histories"

// maintenanceTableCache memoizes a missing machine_maintenance_histories
// table. Older deployments ran without the table, and the timeline must
// degrade to the other sources instead of erroring on every read.
var maintenanceTableCache = utils.NewTableCache()

// InvalidateMaintenanceTableCache clears the memoized table check.
// Called after migrations run.
func InvalidateMaintenanceTableCache() {
	maintenanceTableCache.Invalidate(maintenanceHistoryTable)
}

// MaintenanceEntry is a manually logged maintenance record, used for work
// done outside the job report workflow.
type MaintenanceEntry struct {
	ID              int                 `gorm:"primary_key" json:"id"`
	BusinessId      string              `gorm:"index;not null" json:"business_id"`
	MachineId       int                 `gorm:"index;not null" json:"machine_id"`
	MaintenanceDate time.Time           `gorm:"index;not null" json:"maintenance_date"`
	Category        MaintenanceCategory `gorm:"type:enum('Mechanical','Electrical','Cosmetic','Software','Preventative','Other');not null;default:'Other'" json:"category"`
	Title           string              `gorm:"size:255;not null" json:"title" binding:"required"`
	Description     string              `gorm:"type:text" json:"description"`
	Technician      string              `gorm:"size:100" json:"technician"`
	Cost            decimal.Decimal     `gorm:"type:decimal(10,2);not null;default:0" json:"cost"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (MaintenanceEntry) TableName() string {
	return maintenanceHistoryTable
}

func (obj MaintenanceEntry) GetBusinessId() string {
	return obj.BusinessId
}

type NewMaintenanceEntry struct {
	MachineId       int                 `json:"machine_id" binding:"required"`
	MaintenanceDate *time.Time          `json:"maintenance_date"`
	Category        MaintenanceCategory `json:"category"`
	Title           string              `json:"title" binding:"required"`
	Description     string              `json:"description"`
	Technician      string              `json:"technician"`
	Cost            decimal.Decimal     `json:"cost"`
}

func (input *NewMaintenanceEntry) validate(ctx context.Context, businessId string) error {
	if err := utils.ValidateResourceId[Machine](ctx, businessId, input.MachineId); err != nil {
		return errors.New("machine not found")
	}
	if input.Category == "" {
		input.Category = MaintenanceCategoryOther
	}
	if err := input.Category.Validate(); err != nil {
		return err
	}
	if input.Cost.IsNegative() {
		return errors.New("cost cannot be negative")
	}
	return nil
}

func CreateMaintenanceEntry(ctx context.Context, input *NewMaintenanceEntry) (*MaintenanceEntry, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	maintenanceDate := time.Now().UTC()
	if input.MaintenanceDate != nil {
		maintenanceDate = input.MaintenanceDate.UTC()
	}
	if input.Technician == "" {
		input.Technician, _ = utils.GetUserNameFromContext(ctx)
	}

	entry := MaintenanceEntry{
		BusinessId:      businessId,
		MachineId:       input.MachineId,
		MaintenanceDate: maintenanceDate,
		Category:        input.Category,
		Title:           input.Title,
		Description:     input.Description,
		Technician:      input.Technician,
		Cost:            input.Cost,
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		if config.MachineEventsEnabled() {
			return PublishMachineEvent(ctx, tx, businessId, maintenanceDate,
				entry.ID, MachineEventReferenceTypeMaintenanceEntry, &entry, nil, MachineEventActionCreate)
		}
		return nil
	})
	if err != nil {
		if utils.IsMissingTableError(err) {
			maintenanceTableCache.MarkMissing(maintenanceHistoryTable)
		}
		return nil, err
	}
	maintenanceTableCache.Invalidate(maintenanceHistoryTable)
	return &entry, nil
}

func UpdateMaintenanceEntry(ctx context.Context, id int, input *NewMaintenanceEntry) (*MaintenanceEntry, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	entry, err := utils.FetchModel[MaintenanceEntry](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	oldEntry := *entry

	updates := map[string]interface{}{
		"MachineId":   input.MachineId,
		"Category":    input.Category,
		"Title":       input.Title,
		"Description": input.Description,
		"Technician":  input.Technician,
		"Cost":        input.Cost,
	}
	if input.MaintenanceDate != nil {
		updates["MaintenanceDate"] = input.MaintenanceDate.UTC()
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entry).Updates(updates).Error; err != nil {
			return err
		}
		if config.MachineEventsEnabled() {
			return PublishMachineEvent(ctx, tx, businessId, time.Now().UTC(),
				entry.ID, MachineEventReferenceTypeMaintenanceEntry, entry, &oldEntry, MachineEventActionUpdate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func DeleteMaintenanceEntry(ctx context.Context, id int) (*MaintenanceEntry, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	entry, err := utils.FetchModel[MaintenanceEntry](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entry).Error; err != nil {
			return err
		}
		if config.MachineEventsEnabled() {
			return PublishMachineEvent(ctx, tx, businessId, time.Now().UTC(),
				entry.ID, MachineEventReferenceTypeMaintenanceEntry, nil, entry, MachineEventActionDelete)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func GetMaintenanceEntry(ctx context.Context, id int) (*MaintenanceEntry, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[MaintenanceEntry](ctx, businessId, id)
}

// ListMaintenanceEntry returns manual entries for a machine, newest first.
// A missing history table yields an empty list, not an error.
func ListMaintenanceEntry(ctx context.Context, machineId *int, from *time.Time, to *time.Time) ([]*MaintenanceEntry, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if maintenanceTableCache.IsMissing(maintenanceHistoryTable) {
		return []*MaintenanceEntry{}, nil
	}

	db := config.GetDB()
	var results []*MaintenanceEntry

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if machineId != nil && *machineId > 0 {
		dbCtx = dbCtx.Where("machine_id = ?", *machineId)
	}
	if from != nil {
		dbCtx = dbCtx.Where("maintenance_date >= ?", from)
	}
	if to != nil {
		dbCtx = dbCtx.Where("maintenance_date <= ?", to)
	}
	err := dbCtx.Order("maintenance_date DESC").Find(&results).Error
	if err != nil {
		if utils.IsMissingTableError(err) {
			maintenanceTableCache.MarkMissing(maintenanceHistoryTable)
			return []*MaintenanceEntry{}, nil
		}
		return nil, err
	}
	return results, nil
}
