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

// MachineReport is a collection report: the takings and counter reading
// recorded when a machine is emptied. Toys dispensed, payout percentage and
// venue commission are derived at write time from the counter delta.
type MachineReport struct {
	ID                     int             `gorm:"primary_key" json:"id"`
	BusinessId             string          `gorm:"index;not null" json:"business_id"`
	MachineId              int             `gorm:"index;not null" json:"machine_id"`
	Machine                *Machine        `gorm:"foreignKey:MachineId" json:"machine,omitempty"`
	ReportDate             time.Time       `gorm:"index;not null" json:"report_date"`
	MoneyCollected         decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"money_collected"`
	CounterReading         int             `gorm:"not null;default:0" json:"counter_reading"`
	PreviousCounterReading int             `gorm:"not null;default:0" json:"previous_counter_reading"`
	ToysDispensed          int             `gorm:"not null;default:0" json:"toys_dispensed"`
	PrizeCost              decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"prize_cost"`
	PayoutPercentage       decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0" json:"payout_percentage"`
	Commission             decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"commission"`
	CollectedBy            string          `gorm:"size:100" json:"collected_by"`
	Notes                  string          `gorm:"type:text" json:"notes"`
	CreatedAt              time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj MachineReport) GetBusinessId() string {
	return obj.BusinessId
}

type NewMachineReport struct {
	MachineId      int             `json:"machine_id" binding:"required"`
	ReportDate     *time.Time      `json:"report_date"`
	MoneyCollected decimal.Decimal `json:"money_collected"`
	CounterReading int             `json:"counter_reading"`
	Notes          string          `json:"notes"`
}

// CollectionFigures is the derived portion of a collection report.
type CollectionFigures struct {
	ToysDispensed    int
	PrizeCost        decimal.Decimal
	PayoutPercentage decimal.Decimal
	Commission       decimal.Decimal
}

// ComputeCollectionFigures derives toys dispensed, payout percentage and
// venue commission for a collection.
//
// Toys dispensed is the counter delta, clamped at zero: counters reset when
// boards are replaced, and a reset must not produce negative dispense counts.
// Payout percentage is the prize cost dispensed as a share of money
// collected; commission is money collected times the venue's commission rate.
func ComputeCollectionFigures(counterReading, previousCounterReading int, moneyCollected, avgPrizeCost, venueCommissionPct decimal.Decimal) CollectionFigures {
	toys := counterReading - previousCounterReading
	if toys < 0 {
		toys = 0
	}

	prizeCost := avgPrizeCost.Mul(decimal.NewFromInt(int64(toys)))

	payout := decimal.Zero
	if moneyCollected.IsPositive() {
		payout = prizeCost.Div(moneyCollected).Mul(decimal.NewFromInt(100)).Round(2)
	}

	commission := moneyCollected.Mul(venueCommissionPct).Div(decimal.NewFromInt(100)).Round(2)

	return CollectionFigures{
		ToysDispensed:    toys,
		PrizeCost:        prizeCost.Round(2),
		PayoutPercentage: payout,
		Commission:       commission,
	}
}

// averageStockedPrizeCost is the quantity-weighted average cost of the
// prizes currently loaded in the machine. Zero when the machine is empty.
func averageStockedPrizeCost(tx *gorm.DB, ctx context.Context, businessId string, machineId int) (decimal.Decimal, error) {
	type row struct {
		Quantity int
		Cost     decimal.Decimal
	}
	var rows []row
	err := tx.WithContext(ctx).Model(&MachineStock{}).
		Select("machine_stocks.quantity, prizes.cost").
		Joins("JOIN prizes ON prizes.id = machine_stocks.prize_id").
		Where("machine_stocks.business_id = ? AND machine_stocks.machine_id = ? AND machine_stocks.quantity > 0", businessId, machineId).
		Scan(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}

	totalQty := 0
	totalCost := decimal.Zero
	for _, r := range rows {
		totalQty += r.Quantity
		totalCost = totalCost.Add(r.Cost.Mul(decimal.NewFromInt(int64(r.Quantity))))
	}
	if totalQty == 0 {
		return decimal.Zero, nil
	}
	return totalCost.Div(decimal.NewFromInt(int64(totalQty))), nil
}

// CreateMachineReport records a collection. The machine's counter advances
// to the submitted reading inside the same transaction.
func CreateMachineReport(ctx context.Context, input *NewMachineReport) (*MachineReport, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if input.MoneyCollected.IsNegative() {
		return nil, errors.New("money collected cannot be negative")
	}
	if input.CounterReading < 0 {
		return nil, errors.New("counter reading cannot be negative")
	}

	machine, err := utils.FetchModel[Machine](ctx, businessId, input.MachineId)
	if err != nil {
		return nil, errors.New("machine not found")
	}

	venue, err := utils.FetchModel[Venue](ctx, businessId, machine.VenueId)
	if err != nil {
		return nil, errors.New("venue not found")
	}

	reportDate := time.Now().UTC()
	if input.ReportDate != nil {
		reportDate = input.ReportDate.UTC()
	}
	collectedBy, _ := utils.GetUserNameFromContext(ctx)

	var report MachineReport
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		avgCost, err := averageStockedPrizeCost(tx, ctx, businessId, machine.ID)
		if err != nil {
			return err
		}

		figures := ComputeCollectionFigures(input.CounterReading, machine.CurrentCounter,
			input.MoneyCollected, avgCost, venue.CommissionPercentage)

		report = MachineReport{
			BusinessId:             businessId,
			MachineId:              machine.ID,
			ReportDate:             reportDate,
			MoneyCollected:         input.MoneyCollected,
			CounterReading:         input.CounterReading,
			PreviousCounterReading: machine.CurrentCounter,
			ToysDispensed:          figures.ToysDispensed,
			PrizeCost:              figures.PrizeCost,
			PayoutPercentage:       figures.PayoutPercentage,
			Commission:             figures.Commission,
			CollectedBy:            collectedBy,
			Notes:                  input.Notes,
		}
		if err := tx.Create(&report).Error; err != nil {
			return err
		}

		// advance the machine counter
		if err := tx.Model(&Machine{}).Where("id = ?", machine.ID).
			UpdateColumn("current_counter", input.CounterReading).Error; err != nil {
			return err
		}
		if err := RemoveRedisBoth(*machine); err != nil {
			return err
		}

		if config.MachineEventsEnabled() {
			if err := PublishMachineEvent(ctx, tx, businessId, reportDate,
				report.ID, MachineEventReferenceTypeMachineReport, &report, nil, MachineEventActionCreate); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &report, nil
}

// UpdateMachineReport fixes notes or money on an existing collection.
// Counter-derived fields are not editable; with strict immutability enabled
// the whole report is frozen once written.
func UpdateMachineReport(ctx context.Context, id int, moneyCollected *decimal.Decimal, notes *string) (*MachineReport, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if config.StrictCollectionReportImmutability() {
		return nil, errors.New("collection reports are immutable")
	}

	report, err := utils.FetchModel[MachineReport](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if notes != nil {
		updates["Notes"] = *notes
	}
	if moneyCollected != nil {
		if moneyCollected.IsNegative() {
			return nil, errors.New("money collected cannot be negative")
		}
		machine, err := utils.FetchModel[Machine](ctx, businessId, report.MachineId)
		if err != nil {
			return nil, errors.New("machine not found")
		}
		venue, err := utils.FetchModel[Venue](ctx, businessId, machine.VenueId)
		if err != nil {
			return nil, errors.New("venue not found")
		}

		// recompute money-derived figures from the stored counter delta
		payout := decimal.Zero
		if moneyCollected.IsPositive() {
			payout = report.PrizeCost.Div(*moneyCollected).Mul(decimal.NewFromInt(100)).Round(2)
		}
		updates["MoneyCollected"] = *moneyCollected
		updates["PayoutPercentage"] = payout
		updates["Commission"] = moneyCollected.Mul(venue.CommissionPercentage).Div(decimal.NewFromInt(100)).Round(2)
	}
	if len(updates) == 0 {
		return report, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&report).Updates(updates).Error; err != nil {
		return nil, err
	}
	return report, nil
}

func DeleteMachineReport(ctx context.Context, id int) (*MachineReport, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if config.StrictCollectionReportImmutability() {
		return nil, errors.New("collection reports are immutable")
	}

	report, err := utils.FetchModel[MachineReport](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(&report).Error; err != nil {
		return nil, err
	}
	return report, nil
}

func GetMachineReport(ctx context.Context, id int) (*MachineReport, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[MachineReport](ctx, businessId, id, "Machine")
}

func ListMachineReport(ctx context.Context, machineId *int, from *time.Time, to *time.Time) ([]*MachineReport, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*MachineReport

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if machineId != nil && *machineId > 0 {
		dbCtx = dbCtx.Where("machine_id = ?", *machineId)
	}
	if from != nil {
		dbCtx = dbCtx.Where("report_date >= ?", from)
	}
	if to != nil {
		dbCtx = dbCtx.Where("report_date <= ?", to)
	}
	err := dbCtx.Preload("Machine").Order("report_date DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
