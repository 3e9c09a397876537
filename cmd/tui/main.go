package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tradedash/internal/config"
	"tradedash/internal/execution"
	"tradedash/internal/market"
	"tradedash/internal/metrics"
	"tradedash/internal/provider"
	"tradedash/internal/risk"
	"tradedash/internal/util"
	"tradedash/internal/wallet"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath, envFile string
	cmd := &cobra.Command{
		Use:          "tui",
		Short:        "Terminal trading dashboard with mock orders and wallet connect",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfgPath, envFile, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", defaultConfigPath, "path to the YAML config")
	cmd.Flags().StringVar(&envFile, "env", ".env", "optional .env file with overrides")
	return cmd
}

func run(ctx context.Context, cfgPath, envFile string, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyEnv(envFile)
	log := util.NewLoggerTo(os.Stderr, cfg.App.LogLevel, true)

	if cfg.App.MetricsAddr != "" {
		srv := metrics.Serve(cfg.App.MetricsAddr)
		defer srv.Close()
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var backend wallet.Provider
	if cfg.Provider.URL != "" {
		dialCtx, cancelDial := context.WithTimeout(ctx, cfg.Provider.DialTimeout())
		client, err := provider.Dial(dialCtx, cfg.Provider.URL, log)
		cancelDial()
		if err != nil {
			log.Warn().Err(err).Msg("wallet provider unreachable, continuing without one")
		} else {
			defer client.Close()
			backend = client
		}
	}

	feed := market.NewFeed(market.Symbols(), log, market.WithInterval(cfg.Dashboard.FeedInterval()))
	ticks := make(chan market.Tick, 64)
	go func() {
		if err := feed.Run(ctx, ticks); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("feed stopped")
		}
	}()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case tk := <-ticks:
				log.Trace().Str("sym", tk.Symbol).Float64("px", tk.Price).Msg("tick")
			}
		}
	}()

	limits := risk.Limits{MaxNotionalPerTrade: cfg.Risk.MaxNotionalPerTrade, MinNotional: cfg.Risk.MinNotional}
	exec := execution.NewExecutor(log, limits, cfg.Execution.Latency())

	d := newDashboard(cfg, cfgPath, log, in, out)
	d.executor = exec
	d.feed = feed
	d.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	d.session = wallet.NewSession(backend, log, wallet.WithOnChange(d.onWalletChange))

	if err := d.session.Start(ctx); err != nil {
		log.Error().Err(err).Msg("wallet subscriptions failed")
	}
	defer d.session.Close()

	return d.loop(ctx)
}
