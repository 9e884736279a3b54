package reportcfg

// Well-known column keys shared by the spinning-floor datasets.
const (
	ColDate            = "date"
	ColShiftID         = "shift_id"
	ColPlatformShiftID = "platform_shift_id"
	ColLotNumber       = "lot_number"
	ColAssetID         = "asset_id"
	ColMachineName     = "machine_name"
)

// mandatoryColumns are required of every department dataset by default.
var mandatoryColumns = []string{ColDate, ColShiftID, ColPlatformShiftID, ColLotNumber, ColAssetID}

// defaultGrouping is the default set of grouping keys.
var defaultGrouping = []string{ColDate, ColLotNumber, ColAssetID, ColMachineName}

// spinningProducts maps each spinning department to its
// product-identifying column.
var spinningProducts = map[string]string{
	"ringframe":         "count_ne",
	"ringframe_ybs":     "count_ne",
	"speedframe":        "roving_count",
	"drawframefinisher": "hank_ne",
	"drawframebreaker":  "hank_ne",
	"carding":           "hank_ne",
	"comber":            "hank_ne",
	"lapformer":         "target_weight",
}

// Default returns the base configuration layer for spinning-mill
// deployments: department rules for every spinning machine class, the
// product column definitions, and the common grouping/display columns.
// Site configs are merged on top of it.
func Default() *Config {
	cfg := New()

	for dept, product := range spinningProducts {
		cfg.Departments[dept] = DepartmentSpec{
			ProductColumn:          product,
			MandatoryColumns:       append([]string(nil), mandatoryColumns...),
			DefaultGroupingColumns: append([]string(nil), defaultGrouping...),
		}
	}

	cfg.Columns["count_ne"] = ColumnSpec{Name: "Count", SortOrder: -3}
	cfg.Columns["roving_count"] = ColumnSpec{Name: "Hank", Unit: "Ne", SortOrder: -3}
	cfg.Columns["hank_ne"] = ColumnSpec{Name: "Hank", Unit: "Ne", SortOrder: -3}
	cfg.Columns["target_weight"] = ColumnSpec{Name: "Lap Weight", Unit: "Gms/M", SortOrder: -3}
	cfg.Columns[ColLotNumber] = ColumnSpec{Name: "Lot name", SortOrder: -2}
	cfg.Columns[ColMachineName] = ColumnSpec{Name: "Machine", SortOrder: -1}

	return cfg
}
