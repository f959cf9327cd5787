// Command vault is a personal records vault. Without arguments it runs the
// interactive menu; "vault serve" exposes the same operations over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Vault/internal/app"
	"Vault/internal/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	application, err := app.New(cfg, nil)
	if err != nil {
		return fmt.Errorf("app init: %w", err)
	}
	defer application.Close(context.Background())

	switch {
	case len(args) == 0:
		return application.Shell(os.Stdin, os.Stdout).Run(context.Background())
	case args[0] == "serve":
		return serve(cfg, application)
	default:
		return fmt.Errorf("unknown command %q (want no arguments or \"serve\")", args[0])
	}
}

func serve(cfg config.Config, application *app.App) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Store.ConnectTimeout.Duration()+time.Second)
	err := application.Store().Connect(ctx)
	cancel()
	if err != nil {
		return err
	}

	log.Printf("app ready, starting HTTP server")
	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTP.Port,
		Handler:      application.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Duration(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
