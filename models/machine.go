package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/arcadeworks/arcade_backend/config"
	"bitbucket.org/arcadeworks/arcade_backend/utils"
	"github.com/shopspring/decimal"
)

type Machine struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"index;not null" json:"business_id"`
	VenueId        int             `gorm:"index;not null" json:"venue_id"`
	Venue          *Venue          `gorm:"foreignKey:VenueId" json:"venue,omitempty"`
	Name           string          `gorm:"size:100;not null" json:"name" binding:"required"`
	SerialNumber   string          `gorm:"size:100" json:"serial_number"`
	Barcode        string          `gorm:"size:32;index:idx_machine_barcode" json:"barcode"`
	MachineType    MachineType     `gorm:"type:enum('Claw','Vending','Arcade','Redemption');default:Claw" json:"machine_type"`
	Status         MachineStatus   `gorm:"type:enum('Active','Maintenance','Storage','Retired');default:Active" json:"status"`
	PlayCost       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"play_cost"`
	InstallDate    *time.Time      `json:"install_date"`
	CurrentCounter int             `gorm:"not null;default:0" json:"current_counter"`
	ImageUrl       string          `json:"image_url"`
	Notes          string          `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj Machine) GetBusinessId() string {
	return obj.BusinessId
}

type NewMachine struct {
	VenueId      int             `json:"venue_id" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	SerialNumber string          `json:"serial_number"`
	Barcode      string          `json:"barcode"`
	MachineType  MachineType     `json:"machine_type" binding:"required"`
	Status       MachineStatus   `json:"status"`
	PlayCost     decimal.Decimal `json:"play_cost"`
	InstallDate  *time.Time      `json:"install_date"`
	ImageUrl     string          `json:"image_url"`
	Notes        string          `json:"notes"`
}

// validate input for both create & update. (id = 0 for create)

func (input *NewMachine) validate(ctx context.Context, businessId string, id int) error {
	if err := input.MachineType.Validate(); err != nil {
		return err
	}
	if input.Status != "" {
		if err := input.Status.Validate(); err != nil {
			return err
		}
	}
	// check if venue is not owned by other business
	if err := utils.ValidateResourceId[Venue](ctx, businessId, input.VenueId); err != nil {
		return errors.New("venue not found")
	}
	// barcode must be unique within the operator, it drives lookup
	if len(strings.TrimSpace(input.Barcode)) > 0 {
		if err := utils.ValidateUnique[Machine](ctx, businessId, "barcode", input.Barcode, id); err != nil {
			return err
		}
	}
	// serial number
	if len(strings.TrimSpace(input.SerialNumber)) > 0 {
		if err := utils.ValidateUnique[Machine](ctx, businessId, "serial_number", input.SerialNumber, id); err != nil {
			return err
		}
	}
	if input.PlayCost.IsNegative() {
		return errors.New("play cost cannot be negative")
	}
	return nil
}

func CreateMachine(ctx context.Context, input *NewMachine) (*Machine, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = MachineStatusActive
	}

	machine := Machine{
		BusinessId:   businessId,
		VenueId:      input.VenueId,
		Name:         input.Name,
		SerialNumber: input.SerialNumber,
		Barcode:      strings.TrimSpace(input.Barcode),
		MachineType:  input.MachineType,
		Status:       status,
		PlayCost:     input.PlayCost,
		InstallDate:  input.InstallDate,
		ImageUrl:     input.ImageUrl,
		Notes:        input.Notes,
	}

	// db action
	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&machine).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if config.MachineEventsEnabled() {
		if err := PublishMachineEvent(ctx, tx.WithContext(ctx), businessId, time.Now().UTC(),
			machine.ID, MachineEventReferenceTypeMachine, &machine, nil, MachineEventActionCreate); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := machine.RemoveAllRedis(); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &machine, tx.Commit().Error
}

func UpdateMachine(ctx context.Context, id int, input *NewMachine) (*Machine, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	machine, err := utils.FetchModel[Machine](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	oldMachine := *machine

	status := input.Status
	if status == "" {
		status = machine.Status
	}

	// db action
	db := config.GetDB()
	tx := db.Begin()
	err = tx.WithContext(ctx).Model(&machine).Updates(map[string]interface{}{
		"VenueId":      input.VenueId,
		"Name":         input.Name,
		"SerialNumber": input.SerialNumber,
		"Barcode":      strings.TrimSpace(input.Barcode),
		"MachineType":  input.MachineType,
		"Status":       status,
		"PlayCost":     input.PlayCost,
		"InstallDate":  input.InstallDate,
		"ImageUrl":     input.ImageUrl,
		"Notes":        input.Notes,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if config.MachineEventsEnabled() {
		if err := PublishMachineEvent(ctx, tx.WithContext(ctx), businessId, time.Now().UTC(),
			machine.ID, MachineEventReferenceTypeMachine, machine, &oldMachine, MachineEventActionUpdate); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := RemoveRedisBoth(*machine); err != nil {
		tx.Rollback()
		return nil, err
	}
	return machine, tx.Commit().Error
}

func DeleteMachine(ctx context.Context, id int) (*Machine, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	result, err := utils.FetchModel[Machine](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// check if machine has collection reports
	var count int64
	if err := db.WithContext(ctx).Model(&MachineReport{}).
		Where("machine_id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("machine has collection reports")
	}

	// db action
	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(&result).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if config.MachineEventsEnabled() {
		if err := PublishMachineEvent(ctx, tx.WithContext(ctx), businessId, time.Now().UTC(),
			result.ID, MachineEventReferenceTypeMachine, nil, result, MachineEventActionDelete); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := RemoveRedisBoth(*result); err != nil {
		tx.Rollback()
		return nil, err
	}
	return result, tx.Commit().Error
}

func GetMachine(ctx context.Context, id int) (*Machine, error) {
	return GetResource[Machine](ctx, id)
}

func ListMachine(ctx context.Context, venueId *int, status *MachineStatus, name *string) ([]*Machine, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*Machine

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if venueId != nil && *venueId > 0 {
		dbCtx = dbCtx.Where("venue_id = ?", *venueId)
	}
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	// db query
	err := dbCtx.Preload("Venue").Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ListAllMachine(ctx context.Context) ([]*AllMachine, error) {
	return ListAllResource[Machine, AllMachine](ctx, "name")
}

func ToggleActiveMachine(ctx context.Context, id int, isActive bool) (*Machine, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	// machines use status instead of a boolean flag
	machine, err := utils.FetchModel[Machine](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	status := MachineStatusStorage
	if isActive {
		status = MachineStatusActive
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&machine).UpdateColumn("status", status).Error; err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(*machine); err != nil {
		return nil, err
	}
	return machine, nil
}

// LookupMachineByBarcode resolves a scanned barcode to the operator's
// machine. Barcodes are unique per operator, so at most one row matches.
func LookupMachineByBarcode(ctx context.Context, value string) (*Machine, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("barcode value is required")
	}

	db := config.GetDB()
	var machine Machine
	err := db.WithContext(ctx).
		Where("business_id = ? AND barcode = ?", businessId, value).
		Preload("Venue").
		First(&machine).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &machine, nil
}
