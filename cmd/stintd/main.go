package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/stintapp/stint/internal/server"
)

func main() {
	// 1. Load .env if present. Real environment variables win over file
	// values, so a deployed daemon is unaffected by a stray .env.
	_ = godotenv.Load()

	// 2. Load and validate configuration
	cfg, err := server.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// 3. Create the server
	srv, err := server.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to create server: %v\n", err)
		os.Exit(1)
	}
	defer srv.Close()

	// 4. Verify Redis connectivity before serving
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Ping(pingCtx)
	cancelPing()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Redis not accessible: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("stintd starting in environment '%s' on %s\n", cfg.Environment, cfg.ListenAddr)

	// 5. Setup graceful shutdown
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	// 6. Serve in a goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(runCtx)
	}()

	// 7. Wait for shutdown signal or server error
	select {
	case sig := <-sigCh:
		fmt.Printf("Received signal %v, shutting down gracefully...\n", sig)
		cancel()
		<-errCh
	case runErr := <-errCh:
		if runErr != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", runErr)
			os.Exit(1)
		}
	}

	fmt.Println("stintd stopped")
}
