package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/LeJamon/goOracled/internal/core/cost"
	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/spf13/cobra"
)

var sponsor string

var expiresCmd = queryCommand("expires ASSET", "Show when an asset stops being paid for", 1, runExpires)

var extendCmd = &cobra.Command{
	Use:   "extend ASSET AMOUNT",
	Short: "Burn fee tokens to extend an asset's expiration",
	Long: `Burn AMOUNT fee tokens on behalf of the sponsor and push the asset's
expiration forward by AMOUNT / rate extension units.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		who := sponsor
		if who == "" {
			who = callerIdentity(a.cfg)
		}
		return runExtend(cmd.Context(), a, cmd.OutOrStdout(), who, args)
	},
}

var costCmd = queryCommand("cost INVOCATION PERIODS",
	"Estimate the fee of price, twap, xprice or xtwap over PERIODS records", 2, runCost)

var burnsCmd = queryCommand("burns", "List the recorded fee burns", 0, runBurns)

func init() {
	rootCmd.AddCommand(expiresCmd, extendCmd, costCmd, burnsCmd)
	extendCmd.Flags().StringVar(&sponsor, "sponsor", "", "account paying the fee (default: caller)")
}

func runExpires(ctx context.Context, a *app, out io.Writer, args []string) error {
	asset, err := feed.ParseAsset(args[0])
	if err != nil {
		return err
	}
	expires, err := a.oracle.Expires(asset)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s expires at %d (%s)\n", asset, expires, formatTime(expires))
	return nil
}

func runExtend(ctx context.Context, a *app, out io.Writer, payer string, args []string) error {
	asset, err := feed.ParseAsset(args[0])
	if err != nil {
		return err
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[1], err)
	}
	expires, err := a.oracle.Extend(ctx, payer, asset, amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s now expires at %d (%s)\n", asset, expires, formatTime(expires))
	return nil
}

func runCost(ctx context.Context, a *app, out io.Writer, args []string) error {
	c, err := cost.ParseComplexity(args[0])
	if err != nil {
		return err
	}
	periods, err := parseUint32("periods", args[1])
	if err != nil {
		return err
	}
	estimate, err := a.oracle.EstimateCost(c, periods)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s over %d periods costs %d\n", c, periods, estimate)
	return nil
}

func runBurns(ctx context.Context, a *app, out io.Writer, args []string) error {
	journal, err := a.provider.Journal()
	if err != nil {
		return err
	}
	if journal == nil {
		return feed.ErrFeeNotConfigured
	}
	entries, err := journal.Entries(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tTIME\tPAYER\tAMOUNT\tTOKEN")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", e.Seq, formatTime(e.Timestamp), e.Payer, e.Amount, e.Token)
	}
	return w.Flush()
}
