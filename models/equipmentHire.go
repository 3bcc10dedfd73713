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

// EquipmentHire tracks equipment rented out to a venue on a weekly rate,
// separate from the revenue-share machines.
type EquipmentHire struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    string          `gorm:"index;not null" json:"business_id"`
	VenueId       int             `gorm:"index;not null" json:"venue_id"`
	Venue         *Venue          `gorm:"foreignKey:VenueId" json:"venue,omitempty"`
	EquipmentName string          `gorm:"size:255;not null" json:"equipment_name" binding:"required"`
	HireStart     time.Time       `gorm:"not null" json:"hire_start"`
	HireEnd       *time.Time      `json:"hire_end"`
	WeeklyRate    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"weekly_rate"`
	Status        HireStatus      `gorm:"type:enum('Booked','Out','Returned','Overdue');not null;default:'Booked'" json:"status"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj EquipmentHire) GetBusinessId() string {
	return obj.BusinessId
}

type NewEquipmentHire struct {
	VenueId       int             `json:"venue_id" binding:"required"`
	EquipmentName string          `json:"equipment_name" binding:"required"`
	HireStart     time.Time       `json:"hire_start" binding:"required"`
	HireEnd       *time.Time      `json:"hire_end"`
	WeeklyRate    decimal.Decimal `json:"weekly_rate"`
	Status        HireStatus      `json:"status"`
	Notes         string          `json:"notes"`
}

func (input *NewEquipmentHire) validate(ctx context.Context, businessId string) error {
	if err := utils.ValidateResourceId[Venue](ctx, businessId, input.VenueId); err != nil {
		return errors.New("venue not found")
	}
	if input.Status == "" {
		input.Status = HireStatusBooked
	}
	if err := input.Status.Validate(); err != nil {
		return err
	}
	if input.WeeklyRate.IsNegative() {
		return errors.New("weekly rate cannot be negative")
	}
	if input.HireEnd != nil && input.HireEnd.Before(input.HireStart) {
		return errors.New("hire end cannot be before hire start")
	}
	return nil
}

func CreateEquipmentHire(ctx context.Context, input *NewEquipmentHire) (*EquipmentHire, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	hire := EquipmentHire{
		BusinessId:    businessId,
		VenueId:       input.VenueId,
		EquipmentName: input.EquipmentName,
		HireStart:     input.HireStart,
		HireEnd:       input.HireEnd,
		WeeklyRate:    input.WeeklyRate,
		Status:        input.Status,
		Notes:         input.Notes,
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&hire).Error; err != nil {
			return err
		}
		if config.MachineEventsEnabled() {
			return PublishMachineEvent(ctx, tx, businessId, hire.HireStart,
				hire.ID, MachineEventReferenceTypeEquipmentHire, &hire, nil, MachineEventActionCreate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &hire, nil
}

func UpdateEquipmentHire(ctx context.Context, id int, input *NewEquipmentHire) (*EquipmentHire, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	hire, err := utils.FetchModel[EquipmentHire](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	oldHire := *hire

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&hire).Updates(map[string]interface{}{
			"VenueId":       input.VenueId,
			"EquipmentName": input.EquipmentName,
			"HireStart":     input.HireStart,
			"HireEnd":       input.HireEnd,
			"WeeklyRate":    input.WeeklyRate,
			"Status":        input.Status,
			"Notes":         input.Notes,
		}).Error; err != nil {
			return err
		}
		if config.MachineEventsEnabled() {
			return PublishMachineEvent(ctx, tx, businessId, time.Now().UTC(),
				hire.ID, MachineEventReferenceTypeEquipmentHire, hire, &oldHire, MachineEventActionUpdate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hire, nil
}

func DeleteEquipmentHire(ctx context.Context, id int) (*EquipmentHire, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	hire, err := utils.FetchModel[EquipmentHire](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&hire).Error; err != nil {
			return err
		}
		if config.MachineEventsEnabled() {
			return PublishMachineEvent(ctx, tx, businessId, time.Now().UTC(),
				hire.ID, MachineEventReferenceTypeEquipmentHire, nil, hire, MachineEventActionDelete)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hire, nil
}

func GetEquipmentHire(ctx context.Context, id int) (*EquipmentHire, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[EquipmentHire](ctx, businessId, id, "Venue")
}

func ListEquipmentHire(ctx context.Context, venueId *int, status *HireStatus) ([]*EquipmentHire, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*EquipmentHire

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if venueId != nil && *venueId > 0 {
		dbCtx = dbCtx.Where("venue_id = ?", *venueId)
	}
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	// db query
	err := dbCtx.Preload("Venue").Order("hire_start DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
