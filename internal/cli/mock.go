package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storekit/internal/mockapi"
)

// mockCommand serves the in-memory storefront backend for local testing.
func (c *CLI) mockCommand() *cobra.Command {
	var (
		addr string
		opts mockapi.Options
	)
	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Serve a mock storefront API",
		Long: `Serve an in-memory storefront API for trying storekit without a backend.

The mock accepts the bearer token "demo-token". Point storekit at it with
--api-base http://<addr>/api.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			opts.Logger = logger

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", addr, err)
			}
			srv := &http.Server{
				Handler:           mockapi.New(opts),
				ReadHeaderTimeout: 10 * time.Second,
			}

			printSuccess("Mock storefront API listening on %s", ln.Addr())
			printNextStep("Try it", fmt.Sprintf("storekit --api-base http://%s/api brands list", ln.Addr()))

			errc := make(chan error, 1)
			go func() { errc <- srv.Serve(ln) }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			logger.Info("shutting down mock API")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&addr, "addr", "127.0.0.1:8000", "listen address")
	f.IntVar(&opts.Brands, "brands", 25, "number of listed brands")
	f.IntVar(&opts.HiddenBrands, "hidden-brands", 3, "brands reachable only through the detail endpoints")
	f.IntVar(&opts.MaxPageSize, "max-page-size", 0, "cap on the brand page size (0 for none)")
	f.DurationVar(&opts.Latency, "latency", 0, "delay added to every response")
	return cmd
}
