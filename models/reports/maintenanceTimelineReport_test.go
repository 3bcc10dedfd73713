package reports

import (
	"errors"
	"testing"
	"time"

	"bitbucket.org/arcadeworks/arcade_backend/models"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func timelineFixture() ([]*models.Report, []*models.StockMovement, []*models.MaintenanceEntry) {
	completed := day("2026-03-20")
	jobs := []*models.Report{
		{
			ID:          11,
			Title:       "Claw grip slipping",
			Category:    models.MaintenanceCategoryMechanical,
			Status:      models.JobStatusCompleted,
			Cost:        d("45.00"),
			CompletedAt: &completed,
			CreatedAt:   day("2026-03-18"),
		},
		{
			// no completion time, lands on the raised date
			ID:        12,
			Title:     "Coin mech jam",
			Category:  models.MaintenanceCategoryMechanical,
			Status:    models.JobStatusOpen,
			Cost:      d("0.00"),
			CreatedAt: day("2026-03-02"),
		},
	}

	clawMotor := &models.Part{Name: "Claw motor"}
	ledStrip := &models.Part{Name: "LED strip"}
	partId := 7
	partsUsage := []*models.StockMovement{
		{
			ID: 21, PartId: &partId, Part: clawMotor,
			MovementType: models.MovementTypeInstall,
			Quantity:     1, UnitCost: d("35.00"),
			MovedAt: day("2026-03-10").Add(9 * time.Hour),
		},
		{
			ID: 22, PartId: &partId, Part: ledStrip,
			MovementType: models.MovementTypeInstall,
			Quantity:     2, UnitCost: d("8.50"),
			MovedAt: day("2026-03-10").Add(14 * time.Hour),
		},
		{
			// Return movements never show up on the timeline
			ID: 23, PartId: &partId, Part: clawMotor,
			MovementType: models.MovementTypeReturn,
			Quantity:     1, UnitCost: d("35.00"),
			MovedAt: day("2026-03-11"),
		},
	}

	manual := []*models.MaintenanceEntry{
		{
			ID:              31,
			Title:           "Deep clean and glass polish",
			Category:        models.MaintenanceCategoryCosmetic,
			MaintenanceDate: day("2026-03-15"),
			Cost:            d("20.00"),
		},
	}

	return jobs, partsUsage, manual
}

func TestBuildMaintenanceTimelineOrderAndGrouping(t *testing.T) {
	jobs, partsUsage, manual := timelineFixture()

	records := BuildMaintenanceTimeline(jobs, partsUsage, manual)

	// 2 jobs + 1 grouped parts day + 1 manual entry
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}

	wantOrder := []string{
		MaintenanceSourceJob,    // 2026-03-20
		MaintenanceSourceManual, // 2026-03-15
		MaintenanceSourceParts,  // 2026-03-10
		MaintenanceSourceJob,    // 2026-03-02
	}
	for i, want := range wantOrder {
		if records[i].Source != want {
			t.Errorf("record[%d].Source = %s, want %s", i, records[i].Source, want)
		}
	}
	for i := 1; i < len(records); i++ {
		if records[i].Date.After(records[i-1].Date) {
			t.Errorf("records not sorted descending at index %d", i)
		}
	}

	// both installs on 2026-03-10 folded into one record
	parts := records[2]
	if !parts.Date.Equal(day("2026-03-10")) {
		t.Errorf("parts record date = %s, want 2026-03-10", parts.Date)
	}
	// 35.00 + 2 * 8.50
	if !parts.Cost.Equal(d("52.00")) {
		t.Errorf("parts record cost = %s, want 52.00", parts.Cost)
	}
	if parts.Description != "Claw motor x1, LED strip x2" {
		t.Errorf("parts record description = %q", parts.Description)
	}
}

func TestBuildMaintenanceTimelineJobDateFallback(t *testing.T) {
	jobs, _, _ := timelineFixture()

	records := BuildMaintenanceTimeline(jobs, nil, nil)

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if !records[0].Date.Equal(day("2026-03-20")) {
		t.Errorf("completed job date = %s, want completion date", records[0].Date)
	}
	if !records[1].Date.Equal(day("2026-03-02")) {
		t.Errorf("open job date = %s, want created date", records[1].Date)
	}
}

func TestBuildMaintenanceTimelineEmptySources(t *testing.T) {
	records := BuildMaintenanceTimeline(nil, nil, nil)
	if len(records) != 0 {
		t.Fatalf("got %d records, want 0", len(records))
	}
}

func TestComputeMaintenanceStats(t *testing.T) {
	jobs, partsUsage, manual := timelineFixture()
	records := BuildMaintenanceTimeline(jobs, partsUsage, manual)

	// 60 days after the oldest record -> two 30-day months
	now := day("2026-05-01")
	stats := ComputeMaintenanceStats(records, now)

	if stats.RecordCount != 4 {
		t.Errorf("RecordCount = %d, want 4", stats.RecordCount)
	}
	if stats.JobReports != 2 || stats.PartsInstalls != 1 || stats.ManualEntries != 1 {
		t.Errorf("source counts = %d/%d/%d, want 2/1/1",
			stats.JobReports, stats.PartsInstalls, stats.ManualEntries)
	}
	// 45.00 + 0 + 52.00 + 20.00
	if !stats.TotalCost.Equal(d("117.00")) {
		t.Errorf("TotalCost = %s, want 117.00", stats.TotalCost)
	}
	if !stats.AverageCost.Equal(d("29.25")) {
		t.Errorf("AverageCost = %s, want 29.25", stats.AverageCost)
	}
	if !stats.MonthlyAvgCost.Equal(d("58.50")) {
		t.Errorf("MonthlyAvgCost = %s, want 58.50", stats.MonthlyAvgCost)
	}
	if stats.CountByCategory[models.MaintenanceCategoryMechanical] != 3 {
		t.Errorf("Mechanical count = %d, want 3", stats.CountByCategory[models.MaintenanceCategoryMechanical])
	}
	if stats.CountByCategory[models.MaintenanceCategoryCosmetic] != 1 {
		t.Errorf("Cosmetic count = %d, want 1", stats.CountByCategory[models.MaintenanceCategoryCosmetic])
	}
}

func TestComputeMaintenanceStatsMinimumOneMonth(t *testing.T) {
	records := []MaintenanceRecord{
		{Source: MaintenanceSourceManual, Date: day("2026-03-15"), Cost: d("90.00")},
	}

	// only a week elapsed, still divides by one month
	stats := ComputeMaintenanceStats(records, day("2026-03-22"))
	if !stats.MonthlyAvgCost.Equal(d("90.00")) {
		t.Errorf("MonthlyAvgCost = %s, want 90.00", stats.MonthlyAvgCost)
	}
}

func TestComputeMaintenanceStatsEmpty(t *testing.T) {
	stats := ComputeMaintenanceStats(nil, time.Now())
	if stats.RecordCount != 0 || !stats.TotalCost.IsZero() || !stats.MonthlyAvgCost.IsZero() {
		t.Errorf("empty stats not zeroed: %+v", stats)
	}
}

func TestMaintenanceSourceWarnings(t *testing.T) {
	if got := maintenanceSourceWarnings(nil, nil, nil); len(got) != 0 {
		t.Errorf("no failures should warn, got %v", got)
	}

	boom := errors.New("connection refused")
	got := maintenanceSourceWarnings(boom, nil, boom)
	want := []string{"job report history unavailable", "manual maintenance history unavailable"}
	if len(got) != len(want) {
		t.Fatalf("warnings = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("warnings[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
