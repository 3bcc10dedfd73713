package reports

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"bitbucket.org/arcadeworks/arcade_backend/config"
	"bitbucket.org/arcadeworks/arcade_backend/models"
	"bitbucket.org/arcadeworks/arcade_backend/utils"
	"github.com/shopspring/decimal"
)

// Maintenance timeline sources.
const (
	MaintenanceSourceJob    = "job"
	MaintenanceSourceParts  = "parts"
	MaintenanceSourceManual = "manual"
)

// MaintenanceRecord is one row of a machine's maintenance timeline,
// merged from job reports, part installs and manual entries.
type MaintenanceRecord struct {
	Source      string                     `json:"source"`
	Date        time.Time                  `json:"date"`
	Category    models.MaintenanceCategory `json:"category"`
	Title       string                     `json:"title"`
	Description string                     `json:"description"`
	Technician  string                     `json:"technician"`
	Cost        decimal.Decimal            `json:"cost"`
	ReferenceId int                        `json:"referenceId"`
}

type MaintenanceStats struct {
	RecordCount     int                                `json:"recordCount"`
	JobReports      int                                `json:"jobReports"`
	PartsInstalls   int                                `json:"partsInstalls"`
	ManualEntries   int                                `json:"manualEntries"`
	TotalCost       decimal.Decimal                    `json:"totalCost"`
	AverageCost     decimal.Decimal                    `json:"averageCost"`
	MonthlyAvgCost  decimal.Decimal                    `json:"monthlyAvgCost"`
	CountByCategory map[models.MaintenanceCategory]int `json:"countByCategory"`
}

// jobResolvedDate is when a job lands on the timeline: the completion time
// if it has one, otherwise when it was raised.
func jobResolvedDate(job *models.Report) time.Time {
	if job.CompletedAt != nil {
		return *job.CompletedAt
	}
	return job.CreatedAt
}

// BuildMaintenanceTimeline merges the three maintenance sources into one
// timeline sorted newest first. Part installs on the same calendar day fold
// into a single record with the summed cost.
func BuildMaintenanceTimeline(jobs []*models.Report, partsUsage []*models.StockMovement, manual []*models.MaintenanceEntry) []MaintenanceRecord {

	records := make([]MaintenanceRecord, 0, len(jobs)+len(partsUsage)+len(manual))

	for _, job := range jobs {
		records = append(records, MaintenanceRecord{
			Source:      MaintenanceSourceJob,
			Date:        jobResolvedDate(job),
			Category:    job.Category,
			Title:       job.Title,
			Description: job.Description,
			Technician:  job.Technician,
			Cost:        job.Cost,
			ReferenceId: job.ID,
		})
	}

	// group part installs per calendar day
	type partsDay struct {
		date  time.Time
		cost  decimal.Decimal
		names []string
		refId int
	}
	days := map[string]*partsDay{}
	var dayKeys []string
	for _, movement := range partsUsage {
		if movement.MovementType != models.MovementTypeInstall || movement.PartId == nil {
			continue
		}
		key := movement.MovedAt.UTC().Format("2006-01-02")
		day, ok := days[key]
		if !ok {
			midnight, _ := time.Parse("2006-01-02", key)
			day = &partsDay{date: midnight, cost: decimal.Zero, refId: movement.ID}
			days[key] = day
			dayKeys = append(dayKeys, key)
		}
		day.cost = day.cost.Add(movement.UnitCost.Mul(decimal.NewFromInt(int64(movement.Quantity))))
		name := "part"
		if movement.Part != nil {
			name = movement.Part.Name
		}
		day.names = append(day.names, fmt.Sprintf("%s x%d", name, movement.Quantity))
	}
	for _, key := range dayKeys {
		day := days[key]
		records = append(records, MaintenanceRecord{
			Source:      MaintenanceSourceParts,
			Date:        day.date,
			Category:    models.MaintenanceCategoryMechanical,
			Title:       "Parts installed",
			Description: strings.Join(day.names, ", "),
			Cost:        day.cost,
			ReferenceId: day.refId,
		})
	}

	for _, entry := range manual {
		records = append(records, MaintenanceRecord{
			Source:      MaintenanceSourceManual,
			Date:        entry.MaintenanceDate,
			Category:    entry.Category,
			Title:       entry.Title,
			Description: entry.Description,
			Technician:  entry.Technician,
			Cost:        entry.Cost,
			ReferenceId: entry.ID,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
	return records
}

// ComputeMaintenanceStats summarizes a timeline. The monthly average
// spreads the total cost over 30-day months elapsed since the oldest
// record, never fewer than one.
func ComputeMaintenanceStats(records []MaintenanceRecord, now time.Time) MaintenanceStats {
	stats := MaintenanceStats{
		RecordCount:     len(records),
		TotalCost:       decimal.Zero,
		AverageCost:     decimal.Zero,
		MonthlyAvgCost:  decimal.Zero,
		CountByCategory: map[models.MaintenanceCategory]int{},
	}
	if len(records) == 0 {
		return stats
	}

	oldest := records[0].Date
	for _, record := range records {
		stats.TotalCost = stats.TotalCost.Add(record.Cost)
		stats.CountByCategory[record.Category]++
		switch record.Source {
		case MaintenanceSourceJob:
			stats.JobReports++
		case MaintenanceSourceParts:
			stats.PartsInstalls++
		case MaintenanceSourceManual:
			stats.ManualEntries++
		}
		if record.Date.Before(oldest) {
			oldest = record.Date
		}
	}

	stats.AverageCost = stats.TotalCost.Div(decimal.NewFromInt(int64(len(records)))).Round(2)

	months := int(now.Sub(oldest).Hours()/24) / 30
	if months < 1 {
		months = 1
	}
	stats.MonthlyAvgCost = stats.TotalCost.Div(decimal.NewFromInt(int64(months))).Round(2)
	return stats
}

// GetMaintenanceTimeline builds the merged timeline for one machine.
// A source that cannot be read degrades to empty rather than failing the
// whole timeline; the failure is logged and returned as a warning so the
// caller can tell a short timeline from a partial one. Missing-table
// reads do not warn; the entry store already treats those as empty.
func GetMaintenanceTimeline(ctx context.Context, machineId int) ([]MaintenanceRecord, []string, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, nil, errors.New("business id is required")
	}
	if err := utils.ValidateResourceId[models.Machine](ctx, businessId, machineId); err != nil {
		return nil, nil, errors.New("machine not found")
	}

	jobs, jobsErr := models.ListReport(ctx, &machineId, nil, nil)
	if jobsErr != nil {
		config.LogError(config.GetLogger(), "MaintenanceTimeline", "GetMaintenanceTimeline", "job reports", machineId, jobsErr)
		jobs = nil
	}

	install := models.MovementTypeInstall
	partsUsage, partsErr := models.ListStockMovement(ctx, &machineId, &install, nil, nil)
	if partsErr != nil {
		config.LogError(config.GetLogger(), "MaintenanceTimeline", "GetMaintenanceTimeline", "parts usage", machineId, partsErr)
		partsUsage = nil
	}

	manual, manualErr := models.ListMaintenanceEntry(ctx, &machineId, nil, nil)
	if manualErr != nil {
		config.LogError(config.GetLogger(), "MaintenanceTimeline", "GetMaintenanceTimeline", "manual entries", machineId, manualErr)
		manual = nil
	}

	warnings := maintenanceSourceWarnings(jobsErr, partsErr, manualErr)
	return BuildMaintenanceTimeline(jobs, partsUsage, manual), warnings, nil
}

// maintenanceSourceWarnings names each source that failed to load.
func maintenanceSourceWarnings(jobsErr, partsErr, manualErr error) []string {
	var warnings []string
	if jobsErr != nil {
		warnings = append(warnings, "job report history unavailable")
	}
	if partsErr != nil {
		warnings = append(warnings, "parts usage history unavailable")
	}
	if manualErr != nil {
		warnings = append(warnings, "manual maintenance history unavailable")
	}
	return warnings
}

// GetMaintenanceStats recomputes the summary from the current timeline on
// every read.
func GetMaintenanceStats(ctx context.Context, machineId int) (*MaintenanceStats, error) {
	records, _, err := GetMaintenanceTimeline(ctx, machineId)
	if err != nil {
		return nil, err
	}
	stats := ComputeMaintenanceStats(records, time.Now().UTC())
	return &stats, nil
}
