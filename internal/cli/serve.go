package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/reelchemist/internal/api"
	"github.com/forPelevin/reelchemist/internal/pipeline"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and the progress websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}
			if cfg.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			hub := api.NewHub(log)
			studio := pipeline.New(cfg, log, hub)
			studio.Restore(cmd.Context())

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           api.NewRouter(studio, hub, log),
				ReadHeaderTimeout: 10 * time.Second,
			}
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("serving", "addr", ln.Addr().String(), "data_dir", cfg.DataDir)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return hub.Run(ctx) })
			g.Go(func() error {
				if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				timeout := cfg.Server.ShutdownTimeout
				if timeout <= 0 {
					timeout = 10 * time.Second
				}
				shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
				defer cancel()
				log.Info("shutting down")
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default from config)")
	return cmd
}
