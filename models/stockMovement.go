package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/arcadeworks/arcade_backend/config"
	"bitbucket.org/arcadeworks/arcade_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockMovement records a part or prize moving in or out of a machine.
// Part installs feed the maintenance timeline as the parts-used source.
type StockMovement struct {
	ID           int             `gorm:"primary_key" json:"id"`
	BusinessId   string          `gorm:"index;not null" json:"business_id"`
	MachineId    int             `gorm:"index;not null" json:"machine_id"`
	PartId       *int            `gorm:"index" json:"part_id"`
	Part         *Part           `gorm:"foreignKey:PartId" json:"part,omitempty"`
	PrizeId      *int            `gorm:"index" json:"prize_id"`
	Prize        *Prize          `gorm:"foreignKey:PrizeId" json:"prize,omitempty"`
	MovementType MovementType    `gorm:"type:enum('Install','Restock','Remove','Return');not null" json:"movement_type"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"unit_cost"`
	MovedAt      time.Time       `gorm:"index;not null" json:"moved_at"`
	MovedBy      string          `gorm:"size:100" json:"moved_by"`
	Notes        string          `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj StockMovement) GetBusinessId() string {
	return obj.BusinessId
}

type NewStockMovement struct {
	MachineId    int          `json:"machine_id" binding:"required"`
	PartId       *int         `json:"part_id"`
	PrizeId      *int         `json:"prize_id"`
	MovementType MovementType `json:"movement_type" binding:"required"`
	Quantity     int          `json:"quantity" binding:"required"`
	MovedAt      *time.Time   `json:"moved_at"`
	Notes        string       `json:"notes"`
}

func (input *NewStockMovement) validate(ctx context.Context, businessId string) error {
	if err := input.MovementType.Validate(); err != nil {
		return err
	}
	if input.Quantity <= 0 {
		return errors.New("quantity must be positive")
	}
	// exactly one of part / prize
	hasPart := input.PartId != nil && *input.PartId > 0
	hasPrize := input.PrizeId != nil && *input.PrizeId > 0
	if hasPart == hasPrize {
		return errors.New("exactly one of part_id or prize_id is required")
	}
	if err := utils.ValidateResourceId[Machine](ctx, businessId, input.MachineId); err != nil {
		return errors.New("machine not found")
	}
	if hasPart {
		if err := utils.ValidateResourceId[Part](ctx, businessId, *input.PartId); err != nil {
			return errors.New("part not found")
		}
		// prizes move in and out of machines; parts only Install/Return
		if input.MovementType == MovementTypeRestock || input.MovementType == MovementTypeRemove {
			return errors.New("parts support Install and Return movements only")
		}
	}
	if hasPrize {
		if err := utils.ValidateResourceId[Prize](ctx, businessId, *input.PrizeId); err != nil {
			return errors.New("prize not found")
		}
		if input.MovementType == MovementTypeInstall {
			return errors.New("prizes support Restock, Remove and Return movements")
		}
	}
	return nil
}

// CreateStockMovement posts a movement and adjusts the quantities it
// touches in one DB transaction. Posting per machine is serialized with a
// redis lock so concurrent submissions cannot double-spend stock.
func CreateStockMovement(ctx context.Context, input *NewStockMovement) (*StockMovement, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	lock, err := utils.MachineLock(ctx, businessId, input.MachineId, "StockMovement", "CreateStockMovement")
	if err != nil {
		return nil, err
	}
	defer lock.Release(ctx)

	movedAt := time.Now().UTC()
	if input.MovedAt != nil {
		movedAt = input.MovedAt.UTC()
	}
	movedBy, _ := utils.GetUserNameFromContext(ctx)

	movement := StockMovement{
		BusinessId:   businessId,
		MachineId:    input.MachineId,
		PartId:       input.PartId,
		PrizeId:      input.PrizeId,
		MovementType: input.MovementType,
		Quantity:     input.Quantity,
		MovedAt:      movedAt,
		MovedBy:      movedBy,
		Notes:        input.Notes,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.PartId != nil {
			if err := applyPartMovement(tx, ctx, businessId, &movement); err != nil {
				return err
			}
		} else {
			if err := applyPrizeMovement(tx, ctx, businessId, &movement); err != nil {
				return err
			}
		}

		if err := tx.Create(&movement).Error; err != nil {
			return err
		}

		if config.MachineEventsEnabled() {
			if err := PublishMachineEvent(ctx, tx, businessId, movedAt,
				movement.ID, MachineEventReferenceTypeStockMovement, &movement, nil, MachineEventActionCreate); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &movement, nil
}

// applyPartMovement snapshots the part cost and adjusts quantity_on_hand:
// Install consumes stock, Return puts it back.
func applyPartMovement(tx *gorm.DB, ctx context.Context, businessId string, movement *StockMovement) error {
	var part Part
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ?", businessId).
		First(&part, *movement.PartId).Error; err != nil {
		return errors.New("part not found")
	}

	movement.UnitCost = part.Cost

	var newQty int
	switch movement.MovementType {
	case MovementTypeInstall:
		newQty = part.QuantityOnHand - movement.Quantity
		if newQty < 0 {
			return errors.New("not enough parts on hand")
		}
	case MovementTypeReturn:
		newQty = part.QuantityOnHand + movement.Quantity
	default:
		return errors.New("parts support Install and Return movements only")
	}

	if err := tx.WithContext(ctx).Model(&part).UpdateColumn("quantity_on_hand", newQty).Error; err != nil {
		return err
	}
	return RemoveRedisBoth(part)
}

// applyPrizeMovement snapshots the prize cost and adjusts the machine's
// per-prize stock level.
func applyPrizeMovement(tx *gorm.DB, ctx context.Context, businessId string, movement *StockMovement) error {
	var prize Prize
	if err := tx.WithContext(ctx).
		Where("business_id = ?", businessId).
		First(&prize, *movement.PrizeId).Error; err != nil {
		return errors.New("prize not found")
	}

	movement.UnitCost = prize.Cost

	delta := movement.Quantity
	restocked := movement.MovementType == MovementTypeRestock
	if movement.MovementType == MovementTypeRemove || movement.MovementType == MovementTypeReturn {
		delta = -delta
	}
	return adjustMachineStock(tx, ctx, businessId, movement.MachineId, *movement.PrizeId, delta, restocked)
}

func GetStockMovement(ctx context.Context, id int) (*StockMovement, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[StockMovement](ctx, businessId, id, "Part", "Prize")
}

func ListStockMovement(ctx context.Context, machineId *int, movementType *MovementType, from *time.Time, to *time.Time) ([]*StockMovement, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*StockMovement

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if machineId != nil && *machineId > 0 {
		dbCtx = dbCtx.Where("machine_id = ?", *machineId)
	}
	if movementType != nil && *movementType != "" {
		dbCtx = dbCtx.Where("movement_type = ?", *movementType)
	}
	if from != nil {
		dbCtx = dbCtx.Where("moved_at >= ?", from)
	}
	if to != nil {
		dbCtx = dbCtx.Where("moved_at <= ?", to)
	}
	err := dbCtx.Preload("Part").Preload("Prize").Order("moved_at DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteStockMovement reverses the movement's quantity effect and removes
// the record. Used to correct fat-finger postings.
func DeleteStockMovement(ctx context.Context, id int) (*StockMovement, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	movement, err := utils.FetchModel[StockMovement](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	lock, err := utils.MachineLock(ctx, businessId, movement.MachineId, "StockMovement", "DeleteStockMovement")
	if err != nil {
		return nil, err
	}
	defer lock.Release(ctx)

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// apply the opposite quantity effect
		if movement.PartId != nil {
			var part Part
			if err := tx.WithContext(ctx).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("business_id = ?", businessId).
				First(&part, *movement.PartId).Error; err != nil {
				return errors.New("part not found")
			}
			newQty := part.QuantityOnHand
			switch movement.MovementType {
			case MovementTypeInstall:
				newQty += movement.Quantity
			case MovementTypeReturn:
				newQty -= movement.Quantity
			}
			if newQty < 0 {
				return errors.New("reversal would make parts on hand negative")
			}
			if err := tx.WithContext(ctx).Model(&part).UpdateColumn("quantity_on_hand", newQty).Error; err != nil {
				return err
			}
			if err := RemoveRedisBoth(part); err != nil {
				return err
			}
		} else if movement.PrizeId != nil {
			delta := -movement.Quantity
			if movement.MovementType == MovementTypeRemove || movement.MovementType == MovementTypeReturn {
				delta = movement.Quantity
			}
			if err := adjustMachineStock(tx, ctx, businessId, movement.MachineId, *movement.PrizeId, delta, false); err != nil {
				return err
			}
		}

		if err := tx.Delete(&movement).Error; err != nil {
			return err
		}

		if config.MachineEventsEnabled() {
			if err := PublishMachineEvent(ctx, tx, businessId, time.Now().UTC(),
				movement.ID, MachineEventReferenceTypeStockMovement, nil, movement, MachineEventActionDelete); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}
