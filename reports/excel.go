package reports

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/easybudgetapp/easybudget_backend/repository"
	"github.com/xuri/excelize/v2"
)

// WriteBudgetReport renders an xlsx workbook with two sheets: the aggregate
// stats for the active tenant and the top customers by approved volume.
func WriteBudgetReport(ctx context.Context, w io.Writer, budgets *repository.BudgetRepository) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Summary"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	stats := budgets.Stats(ctx, nil)

	f.SetCellValue(sheetName, "A1", "Metric")
	f.SetCellValue(sheetName, "B1", "Value")
	f.SetCellValue(sheetName, "A2", "Total")
	f.SetCellValue(sheetName, "B2", stats.Total)
	f.SetCellValue(sheetName, "A3", "Active")
	f.SetCellValue(sheetName, "B3", stats.Active)
	f.SetCellValue(sheetName, "A4", "Inactive")
	f.SetCellValue(sheetName, "B4", stats.Inactive)
	f.SetCellValue(sheetName, "A5", "Sum")
	f.SetCellValue(sheetName, "B5", stats.Sum.String())
	f.SetCellValue(sheetName, "A6", "Average")
	f.SetCellValue(sheetName, "B6", stats.Average.String())

	row := 8
	f.SetCellValue(sheetName, "A"+fmt.Sprint(row), "Status")
	f.SetCellValue(sheetName, "B"+fmt.Sprint(row), "Count")
	statuses := make([]string, 0, len(stats.ByStatus))
	for status := range stats.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		row++
		f.SetCellValue(sheetName, "A"+fmt.Sprint(row), status)
		f.SetCellValue(sheetName, "B"+fmt.Sprint(row), stats.ByStatus[status])
	}

	customerSheet := "TopCustomers"
	if _, err := f.NewSheet(customerSheet); err != nil {
		return err
	}
	f.SetCellValue(customerSheet, "A1", "CustomerId")
	f.SetCellValue(customerSheet, "B1", "ApprovedTotal")
	for i, total := range budgets.TotalsByCustomer(ctx, 20) {
		f.SetCellValue(customerSheet, "A"+fmt.Sprint(i+2), total.CustomerId)
		f.SetCellValue(customerSheet, "B"+fmt.Sprint(i+2), total.Total.String())
	}

	return f.Write(w)
}
