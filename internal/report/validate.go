package report

import (
	"sort"
	"strings"

	"millreport/internal/dataset"
	"millreport/internal/domain"
	"millreport/internal/reportcfg"
)

// Validate runs the pre-flight checks before any aggregation work: the
// dataset must be non-empty, the department must be configured, every
// mandatory column must exist in the dataset, and every formula parameter
// must be satisfiable from the dataset or an earlier formula. No partial
// report is ever produced past a failed check.
func Validate(ds *dataset.Dataset, cfg *reportcfg.Config, f domain.Filter) error {
	if ds == nil || ds.Len() == 0 {
		return domain.ErrDataValidation("dataset is empty")
	}

	dept, err := cfg.Department(f.DepartmentID)
	if err != nil {
		return err
	}

	var missing []string
	for _, col := range dept.MandatoryColumns {
		if !ds.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return domain.ErrDataValidation("mandatory columns missing from dataset: %s", strings.Join(missing, ", "))
	}

	for _, key := range cfg.FormulaOrder() {
		spec := cfg.Formulas[key]
		for param, col := range spec.Parameters {
			if ds.HasColumn(col) {
				continue
			}
			if _, chained := cfg.Formulas[col]; chained {
				continue
			}
			return domain.ErrFormula(key, "", "parameter %q requires column %q, which is neither in the dataset nor a formula", param, col)
		}
	}
	return nil
}
