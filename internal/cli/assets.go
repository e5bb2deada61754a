package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/spf13/cobra"
)

var expirationDays uint32

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "List or register tracked assets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return runListAssets(a, cmd.OutOrStdout())
	},
}

var assetsAddCmd = &cobra.Command{
	Use:   "add ASSET...",
	Short: "Register assets in the given order",
	Long: `Register one or more assets. Assets are appended to the registry and keep
their index forever. Use a symbol such as BTC or native:<address>.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return runAddAssets(cmd.Context(), a, cmd.OutOrStdout(), args, expirationDays)
	},
}

func init() {
	rootCmd.AddCommand(assetsCmd)
	assetsCmd.AddCommand(assetsAddCmd)
	assetsAddCmd.Flags().Uint32Var(&expirationDays, "expiration-days", 0, "initial expiration of the new assets in days")
}

func runListAssets(a *app, out io.Writer) error {
	assets, err := a.oracle.Assets()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tASSET\tEXPIRES")
	for i, asset := range assets {
		expires, err := a.oracle.Expires(asset)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", i, asset, formatTime(expires))
	}
	return w.Flush()
}

func runAddAssets(ctx context.Context, a *app, out io.Writer, args []string, days uint32) error {
	assets, err := feed.ParseAssets(args)
	if err != nil {
		return err
	}
	indexes, err := a.oracle.AddAssets(a.admin(ctx), assets, days)
	if err != nil {
		return err
	}
	for i, index := range indexes {
		fmt.Fprintf(out, "Registered %s at index %d\n", assets[i], index)
	}
	return nil
}
