package reports

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/arcadeworks/arcade_backend/config"
	"bitbucket.org/arcadeworks/arcade_backend/models"
	"bitbucket.org/arcadeworks/arcade_backend/utils"
	"github.com/shopspring/decimal"
)

type RevenueByVenueResponse struct {
	VenueId         int             `json:"venueId"`
	VenueName       string          `json:"venueName"`
	MachineCount    int             `json:"machineCount"`
	ReportCount     int             `json:"reportCount"`
	TotalMoney      decimal.Decimal `json:"totalMoney"`
	TotalCommission decimal.Decimal `json:"totalCommission"`
	TotalPrizeCost  decimal.Decimal `json:"totalPrizeCost"`
	TotalToys       int             `json:"totalToys"`
	NetRevenue      decimal.Decimal `json:"netRevenue"`
}

// GetRevenueByVenueReport sums collection reports per venue over a date
// range. Net revenue is money collected less venue commission and the cost
// of prizes dispensed.
func GetRevenueByVenueReport(ctx context.Context, fromDate time.Time, toDate time.Time, venueId *int) ([]*RevenueByVenueResponse, error) {
	sqlT := `
SELECT
    venues.id AS venue_id,
    venues.name AS venue_name,
    COUNT(DISTINCT mr.machine_id) AS machine_count,
    COUNT(mr.id) AS report_count,
    SUM(mr.money_collected) AS total_money,
    SUM(mr.commission) AS total_commission,
    SUM(mr.prize_cost) AS total_prize_cost,
    SUM(mr.toys_dispensed) AS total_toys,
    SUM(mr.money_collected) - SUM(mr.commission) - SUM(mr.prize_cost) AS net_revenue
FROM
    machine_reports AS mr
        JOIN
    machines ON machines.id = mr.machine_id
        JOIN
    venues ON venues.id = machines.venue_id
WHERE
    mr.business_id = @businessId
        AND mr.report_date BETWEEN @fromDate AND @toDate
        {{- if .venueId }} AND venues.id = @venueId {{- end }}
GROUP BY venues.id , venues.name
ORDER BY total_money DESC;
`
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if venueId != nil && *venueId != 0 {
		if err := utils.ValidateResourceId[models.Venue](ctx, businessId, *venueId); err != nil {
			return nil, errors.New("venue not found")
		}
	}

	// execting sql template to get raw sql
	sql, err := utils.ExecTemplate(sqlT, map[string]interface{}{
		"venueId": utils.DereferencePtr(venueId),
	})
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var results []*RevenueByVenueResponse
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"businessId": businessId,
		"fromDate":   fromDate,
		"toDate":     toDate,
		"venueId":    venueId,
	}).Scan(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

type MachineRevenueResponse struct {
	MachineId        int             `json:"machineId"`
	MachineName      string          `json:"machineName"`
	VenueName        string          `json:"venueName"`
	ReportCount      int             `json:"reportCount"`
	TotalMoney       decimal.Decimal `json:"totalMoney"`
	TotalToys        int             `json:"totalToys"`
	AveragePayoutPct decimal.Decimal `json:"averagePayoutPct"`
}

// GetMachineRevenueReport breaks takings down per machine, worst payout first.
func GetMachineRevenueReport(ctx context.Context, fromDate time.Time, toDate time.Time, venueId *int) ([]*MachineRevenueResponse, error) {
	sqlT := `
SELECT
    machines.id AS machine_id,
    machines.name AS machine_name,
    venues.name AS venue_name,
    COUNT(mr.id) AS report_count,
    SUM(mr.money_collected) AS total_money,
    SUM(mr.toys_dispensed) AS total_toys,
    AVG(mr.payout_percentage) AS average_payout_pct
FROM
    machine_reports AS mr
        JOIN
    machines ON machines.id = mr.machine_id
        JOIN
    venues ON venues.id = machines.venue_id
WHERE
    mr.business_id = @businessId
        AND mr.report_date BETWEEN @fromDate AND @toDate
        {{- if .venueId }} AND venues.id = @venueId {{- end }}
GROUP BY machines.id , machines.name , venues.name
ORDER BY average_payout_pct DESC;
`
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	sql, err := utils.ExecTemplate(sqlT, map[string]interface{}{
		"venueId": utils.DereferencePtr(venueId),
	})
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var results []*MachineRevenueResponse
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"businessId": businessId,
		"fromDate":   fromDate,
		"toDate":     toDate,
		"venueId":    venueId,
	}).Scan(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}
