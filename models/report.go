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

// Report is a technician job report raised against a machine. Completed
// jobs feed the maintenance timeline alongside part installs and manual
// maintenance entries.
type Report struct {
	ID          int                 `gorm:"primary_key" json:"id"`
	BusinessId  string              `gorm:"index;not null" json:"business_id"`
	MachineId   int                 `gorm:"index;not null" json:"machine_id"`
	Machine     *Machine            `gorm:"foreignKey:MachineId" json:"machine,omitempty"`
	Technician  string              `gorm:"size:100" json:"technician"`
	Category    MaintenanceCategory `gorm:"type:enum('Mechanical','Electrical','Cosmetic','Software','Preventative','Other');not null;default:'Other'" json:"category"`
	Title       string              `gorm:"size:255;not null" json:"title" binding:"required"`
	Description string              `gorm:"type:text" json:"description"`
	Status      JobStatus           `gorm:"type:enum('Open','InProgress','Completed');not null;default:'Open'" json:"status"`
	Priority    JobPriority         `gorm:"type:enum('Low','Normal','High','Urgent');not null;default:'Normal'" json:"priority"`
	Cost        decimal.Decimal     `gorm:"type:decimal(10,2);not null;default:0" json:"cost"`
	CompletedAt *time.Time          `json:"completed_at"`
	CreatedAt   time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj Report) GetBusinessId() string {
	return obj.BusinessId
}

type NewReport struct {
	MachineId   int                 `json:"machine_id" binding:"required"`
	Technician  string              `json:"technician"`
	Category    MaintenanceCategory `json:"category"`
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Status      JobStatus           `json:"status"`
	Priority    JobPriority         `json:"priority"`
	Cost        decimal.Decimal     `json:"cost"`
	CompletedAt *time.Time          `json:"completed_at"`
}

// validate input for both create & update. (id = 0 for create)

func (input *NewReport) validate(ctx context.Context, businessId string) error {
	if err := utils.ValidateResourceId[Machine](ctx, businessId, input.MachineId); err != nil {
		return errors.New("machine not found")
	}
	if input.Category == "" {
		input.Category = MaintenanceCategoryOther
	}
	if err := input.Category.Validate(); err != nil {
		return err
	}
	if input.Status == "" {
		input.Status = JobStatusOpen
	}
	if err := input.Status.Validate(); err != nil {
		return err
	}
	if input.Priority == "" {
		input.Priority = JobPriorityNormal
	}
	if err := input.Priority.Validate(); err != nil {
		return err
	}
	if input.Cost.IsNegative() {
		return errors.New("cost cannot be negative")
	}
	// a job is completed exactly when it carries a completion time
	if input.Status == JobStatusCompleted && input.CompletedAt == nil {
		now := time.Now().UTC()
		input.CompletedAt = &now
	}
	if input.Status != JobStatusCompleted && input.CompletedAt != nil {
		return errors.New("completed_at requires Completed status")
	}
	return nil
}

func CreateReport(ctx context.Context, input *NewReport) (*Report, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	if input.Technician == "" {
		input.Technician, _ = utils.GetUserNameFromContext(ctx)
	}

	report := Report{
		BusinessId:  businessId,
		MachineId:   input.MachineId,
		Technician:  input.Technician,
		Category:    input.Category,
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		Cost:        input.Cost,
		CompletedAt: input.CompletedAt,
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&report).Error; err != nil {
			return err
		}
		if config.MachineEventsEnabled() {
			return PublishMachineEvent(ctx, tx, businessId, report.CreatedAt,
				report.ID, MachineEventReferenceTypeJobReport, &report, nil, MachineEventActionCreate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func UpdateReport(ctx context.Context, id int, input *NewReport) (*Report, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	report, err := utils.FetchModel[Report](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	oldReport := *report

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&report).Updates(map[string]interface{}{
			"MachineId":   input.MachineId,
			"Technician":  input.Technician,
			"Category":    input.Category,
			"Title":       input.Title,
			"Description": input.Description,
			"Status":      input.Status,
			"Priority":    input.Priority,
			"Cost":        input.Cost,
			"CompletedAt": input.CompletedAt,
		}).Error; err != nil {
			return err
		}
		if config.MachineEventsEnabled() {
			return PublishMachineEvent(ctx, tx, businessId, time.Now().UTC(),
				report.ID, MachineEventReferenceTypeJobReport, report, &oldReport, MachineEventActionUpdate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func DeleteReport(ctx context.Context, id int) (*Report, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	report, err := utils.FetchModel[Report](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&report).Error; err != nil {
			return err
		}
		if config.MachineEventsEnabled() {
			return PublishMachineEvent(ctx, tx, businessId, time.Now().UTC(),
				report.ID, MachineEventReferenceTypeJobReport, nil, report, MachineEventActionDelete)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func GetReport(ctx context.Context, id int) (*Report, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Report](ctx, businessId, id, "Machine")
}

func ListReport(ctx context.Context, machineId *int, status *JobStatus, priority *JobPriority) ([]*Report, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*Report

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if machineId != nil && *machineId > 0 {
		dbCtx = dbCtx.Where("machine_id = ?", *machineId)
	}
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if priority != nil && *priority != "" {
		dbCtx = dbCtx.Where("priority = ?", *priority)
	}
	// db query
	err := dbCtx.Preload("Machine").Order("created_at DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
