package cli

import (
	"github.com/spf13/cobra"

	"millreport/internal/loader"
	"millreport/internal/reportcfg"
)

// configFlags are the config-layer flags shared by the offline commands.
type configFlags struct {
	configDir          string
	layers             []string
	allowUnknownFields bool
	skipDefaults       bool
}

// load resolves the report configuration from the flag set: explicit
// layer files win over a config directory; with neither, the built-in
// defaults are resolved as-is.
func (f *configFlags) load() (*reportcfg.Config, error) {
	opts := loader.Options{
		AllowUnknownFields: f.allowUnknownFields,
		SkipDefaults:       f.skipDefaults,
	}
	if len(f.layers) > 0 {
		return loader.LoadWithOptions(opts, f.layers...)
	}
	if f.configDir != "" {
		return loader.DirWithOptions(f.configDir, opts)
	}
	return loader.LoadWithOptions(opts)
}

func addConfigFlags(cmd *cobra.Command, f *configFlags) {
	cmd.Flags().StringVar(&f.configDir, "config-dir", "", "Directory of report config layers (merged by file name)")
	cmd.Flags().StringArrayVar(&f.layers, "config", nil, "Config layer file (YAML/JSON/TOML, repeatable, later wins)")
	cmd.Flags().BoolVar(&f.allowUnknownFields, "allow-unknown-fields", false, "Allow unknown fields in config files")
	cmd.Flags().BoolVar(&f.skipDefaults, "no-defaults", false, "Start from an empty base instead of the built-in defaults")
}
