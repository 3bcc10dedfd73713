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

type Prize struct {
	ID         int             `gorm:"primary_key" json:"id"`
	BusinessId string          `gorm:"index;not null" json:"business_id"`
	Name       string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Sku        string          `gorm:"size:100" json:"sku"`
	Cost       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"cost"`
	Value      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"value"`
	ImageUrl   string          `json:"image_url"`
	IsActive   *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj Prize) GetBusinessId() string {
	return obj.BusinessId
}

type NewPrize struct {
	Name     string          `json:"name" binding:"required"`
	Sku      string          `json:"sku"`
	Cost     decimal.Decimal `json:"cost"`
	Value    decimal.Decimal `json:"value"`
	ImageUrl string          `json:"image_url"`
}

// validate input for both create & update. (id = 0 for create)

func (input *NewPrize) validate(ctx context.Context, businessId string, id int) error {
	// name
	if err := utils.ValidateUnique[Prize](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	// sku
	if len(strings.TrimSpace(input.Sku)) > 0 {
		if err := utils.ValidateUnique[Prize](ctx, businessId, "sku", input.Sku, id); err != nil {
			return err
		}
	}
	if input.Cost.IsNegative() || input.Value.IsNegative() {
		return errors.New("cost and value cannot be negative")
	}
	return nil
}

func CreatePrize(ctx context.Context, input *NewPrize) (*Prize, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	prize := Prize{
		BusinessId: businessId,
		Name:       input.Name,
		Sku:        input.Sku,
		Cost:       input.Cost,
		Value:      input.Value,
		ImageUrl:   input.ImageUrl,
		IsActive:   utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Create(&prize).Error
	if err != nil {
		return nil, err
	}

	if err := prize.RemoveAllRedis(); err != nil {
		return nil, err
	}
	return &prize, nil
}

func UpdatePrize(ctx context.Context, id int, input *NewPrize) (*Prize, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	prize, err := utils.FetchModel[Prize](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&prize).Updates(map[string]interface{}{
		"Name":     input.Name,
		"Sku":      input.Sku,
		"Cost":     input.Cost,
		"Value":    input.Value,
		"ImageUrl": input.ImageUrl,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*prize); err != nil {
		return nil, err
	}
	return prize, nil
}

func DeletePrize(ctx context.Context, id int) (*Prize, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	result, err := utils.FetchModel[Prize](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// check if prize is stocked in machines
	var count int64
	if err := db.WithContext(ctx).Model(&MachineStock{}).
		Where("prize_id = ? AND quantity > 0", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("prize is stocked in machines")
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

func GetPrize(ctx context.Context, id int) (*Prize, error) {
	return GetResource[Prize](ctx, id)
}

func ListPrize(ctx context.Context, name *string) ([]*Prize, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*Prize

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	// db query
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ListAllPrize(ctx context.Context) ([]*AllPrize, error) {
	return ListAllResource[Prize, AllPrize](ctx, "name")
}

func ToggleActivePrize(ctx context.Context, id int, isActive bool) (*Prize, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return ToggleActiveModel[Prize](ctx, businessId, id, isActive)
}
