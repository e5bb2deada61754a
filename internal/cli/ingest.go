package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/spf13/cobra"
)

var ingestTimestamp uint64

var ingestCmd = &cobra.Command{
	Use:   "ingest ASSET=PRICE...",
	Short: "Store a price update",
	Long: `Store one price update. Each argument pairs a registered asset with its
decimal price, e.g. BTC=64250.25. Assets left out keep their previous price.
The timestamp is normalized down to the resolution and defaults to now.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return runIngest(cmd.Context(), a, cmd.OutOrStdout(), args, ingestTimestamp)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().Uint64Var(&ingestTimestamp, "timestamp", 0, "update time in unix seconds (default now)")
}

// buildUpdate turns ASSET=PRICE arguments into a price update.
func buildUpdate(a *app, args []string) (feed.PriceUpdate, error) {
	settings, err := a.oracle.Settings()
	if err != nil {
		return feed.PriceUpdate{}, err
	}

	entries := make([]feed.Entry, 0, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return feed.PriceUpdate{}, fmt.Errorf("expected ASSET=PRICE, got %q", arg)
		}
		asset, err := feed.ParseAsset(name)
		if err != nil {
			return feed.PriceUpdate{}, err
		}
		index, err := a.indexOf(asset)
		if err != nil {
			return feed.PriceUpdate{}, err
		}
		price, err := parsePrice(value, settings.Decimals)
		if err != nil {
			return feed.PriceUpdate{}, err
		}
		entries = append(entries, feed.Entry{Index: index, Price: price})
	}
	return feed.NewPriceUpdate(entries...)
}

func runIngest(ctx context.Context, a *app, out io.Writer, args []string, ts uint64) error {
	update, err := buildUpdate(a, args)
	if err != nil {
		return err
	}
	if ts == 0 {
		ts = a.clock().Now()
	}
	if err := a.oracle.Ingest(a.admin(ctx), update, ts); err != nil {
		return err
	}
	last, err := a.oracle.LastTimestamp()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Stored %d prices at %d (%s)\n", update.Count(), last, formatTime(last))
	return nil
}
