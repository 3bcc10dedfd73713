package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/arcadeworks/arcade_backend/config"
	"bitbucket.org/arcadeworks/arcade_backend/utils"
)

// MachinePaywaveTerminal is a contactless payment terminal fitted to a
// machine. One machine can carry several terminals over its life but at
// most one active at a time.
type MachinePaywaveTerminal struct {
	ID           int        `gorm:"primary_key" json:"id"`
	BusinessId   string     `gorm:"index;not null" json:"business_id"`
	MachineId    int        `gorm:"index;not null" json:"machine_id"`
	TerminalId   string     `gorm:"size:100;not null" json:"terminal_id" binding:"required"`
	Provider     string     `gorm:"size:100" json:"provider"`
	SerialNumber string     `gorm:"size:100" json:"serial_number"`
	ActivatedAt  *time.Time `json:"activated_at"`
	IsActive     *bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj MachinePaywaveTerminal) GetBusinessId() string {
	return obj.BusinessId
}

type NewMachinePaywaveTerminal struct {
	MachineId    int        `json:"machine_id" binding:"required"`
	TerminalId   string     `json:"terminal_id" binding:"required"`
	Provider     string     `json:"provider"`
	SerialNumber string     `json:"serial_number"`
	ActivatedAt  *time.Time `json:"activated_at"`
}

// validate input for both create & update. (id = 0 for create)

func (input *NewMachinePaywaveTerminal) validate(ctx context.Context, businessId string, id int) error {
	if err := utils.ValidateResourceId[Machine](ctx, businessId, input.MachineId); err != nil {
		return errors.New("machine not found")
	}
	if err := utils.ValidateUnique[MachinePaywaveTerminal](ctx, businessId, "terminal_id", input.TerminalId, id); err != nil {
		return err
	}
	return nil
}

func CreateMachinePaywaveTerminal(ctx context.Context, input *NewMachinePaywaveTerminal) (*MachinePaywaveTerminal, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	db := config.GetDB()

	// fitting a new terminal retires any terminal still active on the machine
	if err := db.WithContext(ctx).Model(&MachinePaywaveTerminal{}).
		Where("business_id = ? AND machine_id = ? AND is_active = ?", businessId, input.MachineId, true).
		UpdateColumn("is_active", false).Error; err != nil {
		return nil, err
	}

	terminal := MachinePaywaveTerminal{
		BusinessId:   businessId,
		MachineId:    input.MachineId,
		TerminalId:   input.TerminalId,
		Provider:     input.Provider,
		SerialNumber: input.SerialNumber,
		ActivatedAt:  input.ActivatedAt,
		IsActive:     utils.NewTrue(),
	}

	// db action
	err := db.WithContext(ctx).Create(&terminal).Error
	if err != nil {
		return nil, err
	}
	return &terminal, nil
}

func UpdateMachinePaywaveTerminal(ctx context.Context, id int, input *NewMachinePaywaveTerminal) (*MachinePaywaveTerminal, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	terminal, err := utils.FetchModel[MachinePaywaveTerminal](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&terminal).Updates(map[string]interface{}{
		"MachineId":    input.MachineId,
		"TerminalId":   input.TerminalId,
		"Provider":     input.Provider,
		"SerialNumber": input.SerialNumber,
		"ActivatedAt":  input.ActivatedAt,
	}).Error
	if err != nil {
		return nil, err
	}
	return terminal, nil
}

func DeleteMachinePaywaveTerminal(ctx context.Context, id int) (*MachinePaywaveTerminal, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	terminal, err := utils.FetchModel[MachinePaywaveTerminal](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Delete(&terminal).Error
	if err != nil {
		return nil, err
	}
	return terminal, nil
}

func GetMachinePaywaveTerminal(ctx context.Context, id int) (*MachinePaywaveTerminal, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[MachinePaywaveTerminal](ctx, businessId, id)
}

func ListMachinePaywaveTerminal(ctx context.Context, machineId *int) ([]*MachinePaywaveTerminal, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*MachinePaywaveTerminal

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if machineId != nil && *machineId > 0 {
		dbCtx = dbCtx.Where("machine_id = ?", *machineId)
	}
	// db query
	err := dbCtx.Order("created_at DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
