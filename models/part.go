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

type Part struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"index;not null" json:"business_id"`
	Name           string          `gorm:"size:100;not null" json:"name" binding:"required"`
	PartNumber     string          `gorm:"size:100" json:"part_number"`
	Cost           decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"cost"`
	QuantityOnHand int             `gorm:"not null;default:0" json:"quantity_on_hand"`
	ReorderLevel   int             `gorm:"not null;default:0" json:"reorder_level"`
	Supplier       string          `gorm:"size:100" json:"supplier"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj Part) GetBusinessId() string {
	return obj.BusinessId
}

type NewPart struct {
	Name           string          `json:"name" binding:"required"`
	PartNumber     string          `json:"part_number"`
	Cost           decimal.Decimal `json:"cost"`
	QuantityOnHand int             `json:"quantity_on_hand"`
	ReorderLevel   int             `json:"reorder_level"`
	Supplier       string          `json:"supplier"`
}

// validate input for both create & update. (id = 0 for create)

func (input *NewPart) validate(ctx context.Context, businessId string, id int) error {
	// name
	if err := utils.ValidateUnique[Part](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	// part number
	if len(strings.TrimSpace(input.PartNumber)) > 0 {
		if err := utils.ValidateUnique[Part](ctx, businessId, "part_number", input.PartNumber, id); err != nil {
			return err
		}
	}
	if input.Cost.IsNegative() {
		return errors.New("cost cannot be negative")
	}
	if input.QuantityOnHand < 0 || input.ReorderLevel < 0 {
		return errors.New("quantities cannot be negative")
	}
	return nil
}

func CreatePart(ctx context.Context, input *NewPart) (*Part, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	part := Part{
		BusinessId:     businessId,
		Name:           input.Name,
		PartNumber:     input.PartNumber,
		Cost:           input.Cost,
		QuantityOnHand: input.QuantityOnHand,
		ReorderLevel:   input.ReorderLevel,
		Supplier:       input.Supplier,
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Create(&part).Error
	if err != nil {
		return nil, err
	}

	if err := part.RemoveAllRedis(); err != nil {
		return nil, err
	}
	return &part, nil
}

func UpdatePart(ctx context.Context, id int, input *NewPart) (*Part, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	part, err := utils.FetchModel[Part](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// db action
	// QuantityOnHand is NOT updated here, stock movements own it
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&part).Updates(map[string]interface{}{
		"Name":         input.Name,
		"PartNumber":   input.PartNumber,
		"Cost":         input.Cost,
		"ReorderLevel": input.ReorderLevel,
		"Supplier":     input.Supplier,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*part); err != nil {
		return nil, err
	}
	return part, nil
}

func DeletePart(ctx context.Context, id int) (*Part, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	result, err := utils.FetchModel[Part](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// check if part has stock movements
	var count int64
	if err := db.WithContext(ctx).Model(&StockMovement{}).
		Where("part_id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("part has stock movements")
	}

	// db action
	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*result); err != nil {
		return nil, err
	}
	return result, nil
}

func GetPart(ctx context.Context, id int) (*Part, error) {
	return GetResource[Part](ctx, id)
}

func ListPart(ctx context.Context, name *string, belowReorder *bool) ([]*Part, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*Part

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if belowReorder != nil && *belowReorder {
		dbCtx = dbCtx.Where("quantity_on_hand <= reorder_level")
	}
	// db query
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ListAllPart(ctx context.Context) ([]*AllPart, error) {
	return ListAllResource[Part, AllPart](ctx, "name")
}
