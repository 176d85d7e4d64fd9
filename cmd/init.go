package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gnolang/qlint/internal/query"
	tt "github.com/gnolang/qlint/internal/types"
	"github.com/gnolang/qlint/lint"
)

// initCmd: qlint init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new linter configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfigurationFile(cfgFile); err != nil {
			return fmt.Errorf("error initializing config file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created/updated: %s\n", cfgFile)
		return nil
	},
}

// initConfigurationFile writes the default configuration with every rule
// listed at its default severity, so it can be tuned in place.
func initConfigurationFile(configurationPath string) error {
	if configurationPath == "" {
		configurationPath = lint.DefaultConfigFile
	}

	config := lint.DefaultConfig()
	for _, r := range query.Rules() {
		config.Rules[r.Name] = tt.ConfigRule{Severity: tt.SeverityError}
	}

	d, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configurationPath, d, 0o644)
}
