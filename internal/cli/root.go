package cli

import (
	"fmt"
	"os"

	"github.com/LeJamon/goOracled/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	debug      bool
	caller     string

	// Populated by initConfig
	loadedConfig *config.Config
	configErr    error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "oracled",
	Short: "oracled - price oracle history daemon",
	Long: `oracled stores periodic price snapshots for a registered set of assets
and answers last price, historical, windowed, cross price and TWAP queries
over them. Run "oracled server" to expose the query API over HTTP.`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path (default ./"+config.DefaultConfigFile+" when present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().StringVar(&caller, "caller", "", "identity used for administrative commands (default: configured admin)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	path := configFile
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigFile); err == nil {
			path = config.DefaultConfigFile
		}
	}
	loadedConfig, configErr = config.LoadConfig(path)
	if configErr == nil && debug {
		loadedConfig.Log.Level = "debug"
	}
}

// currentConfig returns the configuration loaded for this invocation.
func currentConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, configErr
	}
	if loadedConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return loadedConfig, nil
}

// callerIdentity is the --caller flag, falling back to the configured admin.
func callerIdentity(cfg *config.Config) string {
	if caller != "" {
		return caller
	}
	return cfg.Oracle.Admin
}
