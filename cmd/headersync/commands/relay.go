package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crosschain/headersync/config"
	"github.com/crosschain/headersync/internal/eventbus"
	"github.com/crosschain/headersync/libs/log"
	"github.com/crosschain/headersync/light"
	"github.com/crosschain/headersync/types"
)

const (
	relayClientID = "relay"

	// maxHeaderLineSize bounds one hex encoded header.
	maxHeaderLineSize = 16 << 20
)

// relayStats counts the outcome of the relayed lines.
type relayStats struct {
	synced   int
	rejected int
	invalid  int
}

// syncedHeader is the line printed for every stored header.
type syncedHeader struct {
	ChainID     uint64     `json:"chain_id"`
	Height      uint32     `json:"height"`
	Hash        types.Hash `json:"hash"`
	Genesis     bool       `json:"genesis"`
	EpochChange bool       `json:"epoch_change"`
}

// MakeRelayCommand returns the command that syncs a stream of hex encoded
// block headers, one per line.
func MakeRelayCommand(conf *config.Config) *cobra.Command {
	var (
		input       string
		stopOnError bool
	)

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Sync a stream of block headers, one hex encoded header per line",
		Long: `Sync a stream of block headers read from --input or stdin, one hex
encoded header per line. Every stored header is printed as a JSON line.
Rejected headers are logged and skipped unless --stop-on-error is set.
When instrumentation is enabled Prometheus metrics are served meanwhile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if input != "" && input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			return relay(cmd, conf, r, stopOnError)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "file to read headers from (default stdin)")
	cmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "stop at the first header that fails to sync")
	return cmd
}

func relay(cmd *cobra.Command, conf *config.Config, r io.Reader, stopOnError bool) error {
	metrics := light.NopMetrics()
	if conf.Instrumentation.Prometheus {
		metrics = light.PrometheusMetrics(conf.Instrumentation.Namespace)
	}

	logger, err := newLogger(cmd, conf)
	if err != nil {
		return err
	}
	bus := eventbus.NewDefault(logger)
	// Syncing waits for the printer to keep up.
	sub, err := bus.Subscribe(eventbus.SubscribeArgs{ClientID: relayClientID, Blocking: true})
	if err != nil {
		return err
	}

	n, err := openNode(cmd, conf, light.WithMetrics(metrics), light.EventBus(bus))
	if err != nil {
		return err
	}
	defer n.close()

	g, ctx := errgroup.WithContext(cmd.Context())
	relayed := make(chan struct{})

	g.Go(func() error {
		defer close(relayed)
		defer func() { _ = bus.UnsubscribeAll(relayClientID) }()

		stats, err := relayHeaders(ctx, n.client, n.logger, r, stopOnError)
		n.logger.Info("relay finished",
			"synced", stats.synced, "rejected", stats.rejected, "invalid", stats.invalid)
		return err
	})
	g.Go(func() error {
		defer func() { _ = bus.UnsubscribeAll(relayClientID) }()
		return printSynced(ctx, sub, cmd.OutOrStdout())
	})
	if conf.Instrumentation.Prometheus {
		srv := newPrometheusServer(conf.Instrumentation)
		g.Go(func() error {
			n.logger.Info("serving metrics", "addr", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-relayed:
			case <-ctx.Done():
			}
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}
	return g.Wait()
}

func relayHeaders(ctx context.Context, c *light.Client, logger log.Logger, r io.Reader, stopOnError bool) (relayStats, error) {
	var stats relayStats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxHeaderLineSize)
	for line := 1; scanner.Scan(); line++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		h, err := decodeHexHeader(text)
		if err != nil {
			stats.invalid++
			logger.Error("skipping undecodable header", "line", line, "err", err)
			if stopOnError {
				return stats, fmt.Errorf("line %d: %w", line, err)
			}
			continue
		}
		if err := c.SyncBlockHeader(h); err != nil {
			stats.rejected++
			if stopOnError {
				return stats, fmt.Errorf("line %d: %w", line, err)
			}
			continue
		}
		stats.synced++
	}
	return stats, scanner.Err()
}

// printSynced writes a JSON line for every event of sub until sub is
// canceled.
func printSynced(ctx context.Context, sub *eventbus.Subscription, w io.Writer) error {
	enc := json.NewEncoder(w)
	for {
		e, err := sub.Next(ctx)
		switch {
		case errors.Is(err, eventbus.ErrUnsubscribed):
			return nil
		case err != nil:
			return err
		}
		if err := enc.Encode(syncedHeader{
			ChainID:     e.ChainID,
			Height:      e.Height,
			Hash:        e.Hash,
			Genesis:     e.Genesis,
			EpochChange: e.EpochChange,
		}); err != nil {
			return err
		}
	}
}

func newPrometheusServer(cfg *config.InstrumentationConfig) *http.Server {
	return &http.Server{
		Addr: cfg.PrometheusListenAddr,
		Handler: promhttp.InstrumentMetricHandler(
			prometheus.DefaultRegisterer, promhttp.HandlerFor(
				prometheus.DefaultGatherer,
				promhttp.HandlerOpts{MaxRequestsInFlight: cfg.MaxOpenConnections},
			),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
