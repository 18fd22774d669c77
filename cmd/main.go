package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/davidbz/precedent/internal/config"
	"github.com/davidbz/precedent/internal/domain"
	"github.com/davidbz/precedent/internal/http"
	"github.com/davidbz/precedent/internal/observability"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "precedent",
		Short: "Similar-case retrieval for clinical notes",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(ingestCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the similar-cases HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context())
		},
	}
}

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Copy reference cases from Postgres into the vector index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngest(cmd.Context())
		},
	}
}

func runServer(parent context.Context) error {
	container, err := buildContainer()
	if err != nil {
		return err
	}
	defer closeResources(container)

	if err := provideServer(container); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return container.Invoke(func(server *http.Server, cfg *config.ServerConfig) error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.ShutdownTimeout)*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	})
}

func runIngest(parent context.Context) error {
	container, err := buildContainer()
	if err != nil {
		return err
	}
	defer closeResources(container)

	if err := provideIngest(container); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return container.Invoke(func(service *domain.IngestService) error {
		logger := observability.FromContext(ctx)

		report, err := service.Run(ctx)
		if report != nil {
			logger.Info("ingestion finished",
				observability.Int("scanned", report.Scanned),
				observability.Int("indexed", report.Indexed),
				observability.Int("rejected", report.Rejected),
				observability.Int("failed", report.Failed),
			)
		}
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		if report.Failed > 0 {
			return errors.New("some cases could not be indexed")
		}
		return nil
	})
}
