package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/spf13/cobra"
)

// query reads prices for parsed arguments and writes the result.
type query func(ctx context.Context, a *app, out io.Writer, args []string) error

func queryCommand(use, short string, nargs int, run query) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return run(cmd.Context(), a, cmd.OutOrStdout(), args)
		},
	}
}

func init() {
	rootCmd.AddCommand(
		queryCommand("lastprice ASSET", "Show the most recent fresh price", 1, runLastPrice),
		queryCommand("price ASSET TIMESTAMP", "Show the price at a timestamp", 2, runPriceAt),
		queryCommand("prices ASSET RECORDS", "Show up to RECORDS recent prices, newest first", 2, runPrices),
		queryCommand("twap ASSET RECORDS", "Show the time-weighted average over RECORDS periods", 2, runTWAP),
		queryCommand("xlastprice BASE QUOTE", "Show the most recent cross price", 2, runCrossLastPrice),
		queryCommand("xprice BASE QUOTE TIMESTAMP", "Show the cross price at a timestamp", 3, runCrossPrice),
		queryCommand("xprices BASE QUOTE RECORDS", "Show up to RECORDS recent cross prices", 3, runCrossPrices),
		queryCommand("xtwap BASE QUOTE RECORDS", "Show the cross time-weighted average", 3, runCrossTWAP),
	)
}

func parseUint32(name, s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return uint32(v), nil
}

func parseTimestamp(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return v, nil
}

func (a *app) decimals() (uint32, error) {
	settings, err := a.oracle.Settings()
	if err != nil {
		return 0, err
	}
	return settings.Decimals, nil
}

func writePrice(a *app, out io.Writer, price feed.PriceData) error {
	decimals, err := a.decimals()
	if err != nil {
		return err
	}
	return writePrices(out, []feed.PriceData{price}, decimals)
}

func writeAverage(a *app, out io.Writer, avg int64) error {
	decimals, err := a.decimals()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, formatPrice(avg, decimals))
	return nil
}

func runLastPrice(ctx context.Context, a *app, out io.Writer, args []string) error {
	assets, err := feed.ParseAssets(args)
	if err != nil {
		return err
	}
	price, err := a.oracle.LastPrice(ctx, assets[0])
	if err != nil {
		return err
	}
	return writePrice(a, out, price)
}

func runPriceAt(ctx context.Context, a *app, out io.Writer, args []string) error {
	assets, err := feed.ParseAssets(args[:1])
	if err != nil {
		return err
	}
	ts, err := parseTimestamp(args[1])
	if err != nil {
		return err
	}
	price, err := a.oracle.PriceAt(ctx, assets[0], ts)
	if err != nil {
		return err
	}
	return writePrice(a, out, price)
}

func runPrices(ctx context.Context, a *app, out io.Writer, args []string) error {
	assets, err := feed.ParseAssets(args[:1])
	if err != nil {
		return err
	}
	n, err := parseUint32("records", args[1])
	if err != nil {
		return err
	}
	prices, err := a.oracle.Prices(ctx, assets[0], n)
	if err != nil {
		return err
	}
	decimals, err := a.decimals()
	if err != nil {
		return err
	}
	return writePrices(out, prices, decimals)
}

func runTWAP(ctx context.Context, a *app, out io.Writer, args []string) error {
	assets, err := feed.ParseAssets(args[:1])
	if err != nil {
		return err
	}
	n, err := parseUint32("records", args[1])
	if err != nil {
		return err
	}
	avg, err := a.oracle.TWAP(ctx, assets[0], n)
	if err != nil {
		return err
	}
	return writeAverage(a, out, avg)
}

func runCrossLastPrice(ctx context.Context, a *app, out io.Writer, args []string) error {
	assets, err := feed.ParseAssets(args)
	if err != nil {
		return err
	}
	price, err := a.oracle.CrossLastPrice(ctx, assets[0], assets[1])
	if err != nil {
		return err
	}
	return writePrice(a, out, price)
}

func runCrossPrice(ctx context.Context, a *app, out io.Writer, args []string) error {
	assets, err := feed.ParseAssets(args[:2])
	if err != nil {
		return err
	}
	ts, err := parseTimestamp(args[2])
	if err != nil {
		return err
	}
	price, err := a.oracle.CrossPrice(ctx, assets[0], assets[1], ts)
	if err != nil {
		return err
	}
	return writePrice(a, out, price)
}

func runCrossPrices(ctx context.Context, a *app, out io.Writer, args []string) error {
	assets, err := feed.ParseAssets(args[:2])
	if err != nil {
		return err
	}
	n, err := parseUint32("records", args[2])
	if err != nil {
		return err
	}
	prices, err := a.oracle.CrossPrices(ctx, assets[0], assets[1], n)
	if err != nil {
		return err
	}
	decimals, err := a.decimals()
	if err != nil {
		return err
	}
	return writePrices(out, prices, decimals)
}

func runCrossTWAP(ctx context.Context, a *app, out io.Writer, args []string) error {
	assets, err := feed.ParseAssets(args[:2])
	if err != nil {
		return err
	}
	n, err := parseUint32("records", args[2])
	if err != nil {
		return err
	}
	avg, err := a.oracle.CrossTWAP(ctx, assets[0], assets[1], n)
	if err != nil {
		return err
	}
	return writeAverage(a, out, avg)
}
