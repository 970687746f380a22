package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdrpinto/planinspect/internal/server"
)

// serveCmd exposes the stepping API over HTTP
var serveCmd = &cobra.Command{
	Use:   "serve <scenario.yaml>",
	Short: "Serve a scenario's search over HTTP",
	Long: `Starts an HTTP server that steps the scenario's search on request.

Routes:
  POST /begin                 begin (or restart) the search
  POST /step?count=n          advance n steps (default 1)
  GET  /states                list recorded states
  GET  /states/:index         one state as JSON
  GET  /states/:index/text    one state as printed text
  GET  /plan                  the plan, once found`,
	Args: cobra.ExactArgs(1),
	RunE: serveScenario,
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "listen address")
	_ = v.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
}

func serveScenario(cmd *cobra.Command, args []string) error {
	sess, err := openSession(args[0])
	if err != nil {
		return err
	}
	defer sess.inspector.Close()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(sess.scenario, sess.inspector, sess.options, logger.Named("server"))
	httpServer := &http.Server{
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.Serve.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Serve.Addr, err)
	}
	logger.Info("Serving scenario",
		zap.String("scenario", sess.scenario.Name),
		zap.String("addr", ln.Addr().String()),
		zap.String("session", sess.inspector.SessionID()))
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", ln.Addr())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
