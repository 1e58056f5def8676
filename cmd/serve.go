package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aiomayo/portwatch/internal/server"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(o *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the socket inventory over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = o.cfg.ListenAddr
			}
			return runServe(cmd.Context(), o, listen)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default from config)")
	return cmd
}

func runServe(ctx context.Context, o *rootOptions, listen string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	if !o.verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	a := newApp(ctx, o.cfg)
	defer a.Close()

	srv := server.NewServer(server.Config{ListenAddr: listen, CORSOrigin: o.cfg.CORSOrigin}, a.service)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return &exitError{code: 1, message: fmt.Sprintf("server: %v", err)}
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return &exitError{code: 1, message: fmt.Sprintf("shutdown: %v", err)}
	}
	return nil
}
