package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/toM7x7/LLM-mindmap/pkg/api"
	"github.com/toM7x7/LLM-mindmap/pkg/auth"
	"github.com/toM7x7/LLM-mindmap/pkg/log"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides http_addr from the config")
	return cmd
}

func runServe(ctx context.Context, addr string) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if addr == "" {
		addr = a.cfg.HTTPAddr
	}

	authority, err := auth.NewHMACAuthority(a.cfg.JWTSecret, time.Duration(a.cfg.JWTTTLMinutes)*time.Minute, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize token authority: %w", err)
	}
	var verifier auth.Verifier = authority
	if a.cfg.JWKSURL != "" {
		jwks, err := auth.NewJWKSVerifier(ctx, a.cfg.JWKSURL, a.logger)
		if err != nil {
			return fmt.Errorf("failed to load JWKS: %w", err)
		}
		verifier = jwks
	}

	srv, err := api.NewServer(api.Options{
		Data:        a.data,
		Bridge:      a.bridge,
		Issuer:      authority,
		Verifier:    verifier,
		Health:      a.store.GetDatabase().Ping,
		Logger:      a.logger,
		CORSOrigins: a.cfg.CORSOrigins,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize API server: %w", err)
	}

	servers := []*http.Server{{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if a.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		servers = append(servers, &http.Server{
			Addr:              a.cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, hs := range servers {
		g.Go(func() error {
			a.logger.Info(gctx, "HTTP server listening", log.Fields{"addr": hs.Addr})
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server on %s failed: %w", hs.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, hs := range servers {
			if err := hs.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("failed to shut down %s: %w", hs.Addr, err))
			}
		}
		a.logger.Info(shutdownCtx, "HTTP servers stopped", nil)
		return errors.Join(errs...)
	})
	return g.Wait()
}
