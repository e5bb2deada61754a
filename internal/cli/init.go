package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the store from the configuration",
	Long: `Write the immutable settings (base asset, decimals, resolution) and the
initial assets of the [oracle] section to an empty store. Running it against
an initialized store only applies the operational settings.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return runInit(cmd.Context(), a, cmd.OutOrStdout())
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the stored settings and state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return runInfo(a, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(infoCmd)
}

func runInit(ctx context.Context, a *app, out io.Writer) error {
	initialized, err := a.initialize(ctx)
	if err != nil {
		return err
	}
	if !initialized {
		if err := a.reconcile(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Store already initialized; operational settings applied")
		return nil
	}
	assets, err := a.oracle.Assets()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Initialized with %d assets\n", len(assets))
	return nil
}

func runInfo(a *app, out io.Writer) error {
	settings, err := a.oracle.Settings()
	if err != nil {
		return err
	}
	assets, err := a.oracle.Assets()
	if err != nil {
		return err
	}
	last, err := a.oracle.LastTimestamp()
	if err != nil {
		return err
	}
	version, err := a.oracle.ProtocolVersion()
	if err != nil {
		return err
	}
	fee, err := a.oracle.FeeConfig()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Base asset:       %s\n", settings.BaseAsset)
	fmt.Fprintf(out, "Decimals:         %d\n", settings.Decimals)
	fmt.Fprintf(out, "Resolution:       %ds\n", settings.Resolution)
	fmt.Fprintf(out, "Retention:        %ds (%d periods)\n", settings.RetentionPeriod, settings.RetainedPeriods())
	fmt.Fprintf(out, "Assets:           %d\n", len(assets))
	fmt.Fprintf(out, "Last timestamp:   %d (%s)\n", last, formatTime(last))
	fmt.Fprintf(out, "Protocol:         %s\n", version)
	if fee.Configured() {
		fmt.Fprintf(out, "Fee:              %d %s per %ds\n", fee.Rate, fee.Token, fee.ExtensionUnit)
	} else {
		fmt.Fprintln(out, "Fee:              not configured")
	}
	return nil
}
