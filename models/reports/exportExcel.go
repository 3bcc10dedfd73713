package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportRevenueByVenueExcel streams the revenue report as an xlsx workbook.
func ExportRevenueByVenueExcel(ctx context.Context, w io.Writer, fromDate time.Time, toDate time.Time, venueId *int) error {

	data, err := GetRevenueByVenueReport(ctx, fromDate, toDate, venueId)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheetName := "Revenue"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headings := []string{"Venue", "Machines", "Collections", "Money Collected", "Commission", "Prize Cost", "Toys Dispensed", "Net Revenue"}
	col := 'A'
	for _, h := range headings {
		f.SetCellValue(sheetName, string(col)+"1", h)
		col++
	}

	for i, row := range data {
		rowNo := fmt.Sprint(i + 2)
		f.SetCellValue(sheetName, "A"+rowNo, row.VenueName)
		f.SetCellValue(sheetName, "B"+rowNo, row.MachineCount)
		f.SetCellValue(sheetName, "C"+rowNo, row.ReportCount)
		f.SetCellValue(sheetName, "D"+rowNo, row.TotalMoney.InexactFloat64())
		f.SetCellValue(sheetName, "E"+rowNo, row.TotalCommission.InexactFloat64())
		f.SetCellValue(sheetName, "F"+rowNo, row.TotalPrizeCost.InexactFloat64())
		f.SetCellValue(sheetName, "G"+rowNo, row.TotalToys)
		f.SetCellValue(sheetName, "H"+rowNo, row.NetRevenue.InexactFloat64())
	}

	return f.Write(w)
}
