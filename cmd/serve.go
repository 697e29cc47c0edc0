package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/facetrace/facetrace/internal/config"
	"github.com/facetrace/facetrace/internal/database/postgres"
	"github.com/facetrace/facetrace/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the face register and search API server",
	Long: `Start the Facetrace HTTP server.
The server accepts face registrations for known identities and answers
similarity searches over the registered catalog.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// initIdentityHNSW builds the in-memory HNSW index for fast searches.
func initIdentityHNSW(ctx context.Context, repo *postgres.IdentityRepository) {
	fmt.Printf("Building in-memory HNSW index for identity search...\n")
	if err := repo.EnableHNSW(ctx); err != nil {
		fmt.Printf("Warning: Failed to build HNSW index: %v\n", err)
		fmt.Printf("Identity search will use PostgreSQL queries (slower)\n")
	} else {
		fmt.Printf("HNSW index built with %d identities\n", repo.HNSWCount())
	}
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (string, int) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		if n, err := strconv.Atoi(envPort); err == nil {
			port = n
		} else {
			fmt.Printf("Warning: ignoring invalid WEB_PORT %q\n", envPort)
		}
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return host, port
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	pool, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	store := postgres.NewStore(pool)

	if cfg.Database.UseHNSW {
		initIdentityHNSW(context.Background(), store.IdentityRepository)
	}

	pipe := newFacePipeline(cfg)
	host, port := resolveServeHostPort(cmd)
	server := web.NewServer(host, port, pipe, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Facetrace API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
