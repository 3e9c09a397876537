package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tradedash/internal/config"
	"tradedash/internal/provider"
	"tradedash/internal/util"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	cfgPath     string
	envFile     string
	addr        string
	interactive bool
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "walletd",
		Short: "Demo wallet daemon serving a mock EVM wallet over websocket JSON-RPC",
		Long: `walletd holds a mock wallet and serves it at /rpc so the dashboard can connect to it.
With --interactive, connection requests wait for 'approve' or 'reject' on stdin,
and the console can switch accounts and chains to emit wallet events.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.cfgPath, "config", "c", defaultConfigPath, "path to the YAML config")
	cmd.Flags().StringVar(&opts.envFile, "env", ".env", "optional .env file with overrides")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides walletd.addr)")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "ask on stdin before approving connection requests")
	return cmd
}

func run(ctx context.Context, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(opts.cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyEnv(opts.envFile)
	if opts.addr != "" {
		cfg.Walletd.Addr = opts.addr
	}
	log := util.NewLogger(cfg.App.LogLevel)

	mock, err := newMock(cfg.Walletd)
	if err != nil {
		return err
	}

	ctx, cancel := ossignal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if opts.interactive {
		con := newConsole(mock, log, os.Stdout)
		mock.SetPrompt(con.prompt)
		fmt.Fprintln(os.Stdout, consoleHelp)
		go func() {
			if err := con.run(ctx, os.Stdin); err != nil {
				log.Error().Err(err).Msg("console stopped")
			}
		}()
	}

	srv := &http.Server{Addr: cfg.Walletd.Addr, Handler: newRouter(mock, log), ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info().Str("addr", cfg.Walletd.Addr).Uint64("chain_id", cfg.Walletd.ChainID).
		Int("accounts", len(cfg.Walletd.Accounts)).Msg("walletd listening on /rpc")

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

// newMock builds the wallet described by the walletd config section.
func newMock(cfg config.Walletd) (*provider.Mock, error) {
	balances, err := cfg.BalancesWei()
	if err != nil {
		return nil, err
	}
	mock := provider.NewMock(cfg.ChainID, cfg.Accounts...)
	for addr, wei := range balances {
		mock.SetBalance(cfg.ChainID, addr, wei)
	}
	if cfg.Authorized {
		mock.Authorize()
	}
	if cfg.RejectPrompts {
		mock.RejectPrompts()
	}
	return mock, nil
}

func newRouter(mock *provider.Mock, log zerolog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/rpc", provider.NewServer(mock, log)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}
