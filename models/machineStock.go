package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/arcadeworks/arcade_backend/config"
	"bitbucket.org/arcadeworks/arcade_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MachineStock tracks how many of a prize are loaded in a machine.
// Rows are upserted by stock movements, one row per (machine, prize).
type MachineStock struct {
	ID              int        `gorm:"primary_key" json:"id"`
	BusinessId      string     `gorm:"index;not null" json:"business_id"`
	MachineId       int        `gorm:"index;not null;uniqueIndex:idx_machine_prize,priority:1" json:"machine_id"`
	PrizeId         int        `gorm:"index;not null;uniqueIndex:idx_machine_prize,priority:2" json:"prize_id"`
	Prize           *Prize     `gorm:"foreignKey:PrizeId" json:"prize,omitempty"`
	Quantity        int        `gorm:"not null;default:0" json:"quantity"`
	LastRestockedAt *time.Time `json:"last_restocked_at"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj MachineStock) GetBusinessId() string {
	return obj.BusinessId
}

func ListMachineStock(ctx context.Context, machineId int) ([]*MachineStock, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := utils.ValidateResourceId[Machine](ctx, businessId, machineId); err != nil {
		return nil, errors.New("machine not found")
	}

	db := config.GetDB()
	var results []*MachineStock
	err := db.WithContext(ctx).
		Where("business_id = ? AND machine_id = ?", businessId, machineId).
		Preload("Prize").
		Order("prize_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// adjustMachineStock applies a delta to the (machine, prize) row inside the
// caller's transaction, creating the row on first restock. The resulting
// quantity must not go negative.
func adjustMachineStock(tx *gorm.DB, ctx context.Context, businessId string, machineId int, prizeId int, delta int, restocked bool) error {

	var stock MachineStock
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND machine_id = ? AND prize_id = ?", businessId, machineId, prizeId).
		First(&stock).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if delta < 0 {
			return errors.New("machine has no stock of this prize")
		}
		now := time.Now().UTC()
		stock = MachineStock{
			BusinessId:      businessId,
			MachineId:       machineId,
			PrizeId:         prizeId,
			Quantity:        delta,
			LastRestockedAt: &now,
		}
		return tx.WithContext(ctx).Create(&stock).Error
	}

	newQty := stock.Quantity + delta
	if newQty < 0 {
		return errors.New("machine stock cannot go negative")
	}

	updates := map[string]interface{}{"Quantity": newQty}
	if restocked {
		now := time.Now().UTC()
		updates["LastRestockedAt"] = &now
	}
	return tx.WithContext(ctx).Model(&stock).Updates(updates).Error
}
