// Demo entry point: generates a set of reports from inline production
// data and prints them. The real binaries live under cmd/.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"millreport/internal/dataset"
	"millreport/internal/domain"
	"millreport/internal/report"
	"millreport/internal/reportcfg"
)

// demoConfig builds a small ring frame department configuration with one
// derived efficiency formula.
func demoConfig() (*reportcfg.Config, error) {
	cfg := reportcfg.New()
	cfg.Departments["ringframe"] = reportcfg.DepartmentSpec{
		ProductColumn:          "count_ne",
		MandatoryColumns:       []string{"date", "shift_id", "platform_shift_id", "lot_number", "asset_id"},
		DefaultGroupingColumns: []string{"date", "lot_number", "asset_id", "machine_name"},
	}
	cfg.Columns["count_ne"] = reportcfg.ColumnSpec{Name: "Count", SortOrder: -3}
	cfg.Columns["lot_number"] = reportcfg.ColumnSpec{Name: "Lot name", SortOrder: -2}
	cfg.Columns["machine_name"] = reportcfg.ColumnSpec{Name: "Machine", SortOrder: -1}
	cfg.Columns["production_kg"] = reportcfg.ColumnSpec{Name: "Production", Unit: "Kg", Behavior: reportcfg.BehaviorAggregate, SortOrder: 1}
	cfg.Columns["run_minutes"] = reportcfg.ColumnSpec{Name: "Run time", Unit: "min", Behavior: reportcfg.BehaviorAggregate, SortOrder: 2}
	cfg.Columns["efficiency"] = reportcfg.ColumnSpec{Name: "Efficiency", Unit: "%", SortOrder: 3}
	cfg.Formulas["efficiency"] = reportcfg.FormulaSpec{
		Expr:       "production / run * 100",
		Parameters: map[string]string{"production": "production_kg", "run": "run_minutes"},
	}
	cfg.ShiftLabels["SFA"] = "Shift A"
	cfg.ShiftLabels["SFB"] = "Shift B"
	return cfg.Resolve()
}

func demoRow(date, shift, platformShift, machine string, production, run float64) map[string]any {
	return map[string]any{
		"date":              date,
		"shift_id":          shift,
		"platform_shift_id": platformShift,
		"lot_number":        "40sCW",
		"asset_id":          "RF-" + machine,
		"machine_name":      machine,
		"count_ne":          40.0,
		"production_kg":     production,
		"run_minutes":       run,
	}
}

func main() {
	cfg, err := demoConfig()
	if err != nil {
		log.Fatalf("resolve config: %v", err)
	}

	ds := dataset.FromRecords([]map[string]any{
		demoRow("2024-03-01", "1", "SFA", "01", 412.5, 465),
		demoRow("2024-03-01", "2", "SFB", "01", 398.0, 450),
		demoRow("2024-03-01", "1", "SFA", "02", 405.2, 460),
		demoRow("2024-03-02", "1", "SFA", "01", 420.8, 470),
		demoRow("2024-03-02", "2", "SFB", "02", 388.4, 440),
	})

	svc := report.NewService(slog.Default())

	reportTypes := []string{domain.ReportDaywise, domain.ReportShiftwise, domain.ReportMonthwise}
	if len(os.Args) > 1 {
		reportTypes = os.Args[1:]
	}

	for _, rt := range reportTypes {
		fmt.Printf("\n=== %s report: ringframe ===\n\n", rt)

		rpt, err := svc.Generate(ds, cfg, domain.Filter{
			DepartmentID: "ringframe",
			ReportType:   rt,
		}, report.Options{})
		if err != nil {
			fmt.Printf("ERROR: %v\n", err)
			continue
		}

		out, err := json.MarshalIndent(rpt, "", "  ")
		if err != nil {
			log.Fatalf("marshal report: %v", err)
		}
		fmt.Println(string(out))
	}
}
