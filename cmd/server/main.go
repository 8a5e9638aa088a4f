package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/ytdlp-api-go/api"
	"github.com/yourusername/ytdlp-api-go/internal/app"
	"github.com/yourusername/ytdlp-api-go/internal/infrastructure"
	"github.com/yourusername/ytdlp-api-go/pkg/logger"
)

const version = "1.0.0"

var (
	serverMode = flag.Bool("server-mode", false, "Internal flag: run in server mode (called by daemon)")
	foreground = flag.Bool("foreground", false, "Run in the foreground instead of daemonizing")
	configPath = flag.String("config", "", "Config file path (default ~/.ytdlp-api/config.yaml)")
)

func main() {
	flag.Parse()

	if *serverMode || *foreground {
		runServer()
		return
	}
	startAsDaemon()
}

// startAsDaemon re-executes this binary detached in a new session and
// exits. The child is the actual server.
func startAsDaemon() {
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	args := []string{"-server-mode"}
	if *configPath != "" {
		args = append(args, "-config", *configPath)
	}

	cmd := exec.Command(execPath, args...)
	cmd.Env = os.Environ()
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open /dev/null: %v\n", err)
		os.Exit(1)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start daemon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server started as daemon (PID: %d)\n", cmd.Process.Pid)
	os.Exit(0)
}

func runServer() {
	store, err := app.LoadConfigStore(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	config := store.Get()

	log, err := logger.New(config.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting ytdlp-api server",
		zap.String("version", version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("download_directory", config.DownloadDirectory),
		zap.String("tool_binary", config.Tool.Binary))

	if err := os.MkdirAll(config.DownloadDirectory, 0o755); err != nil {
		log.Fatal("Failed to create download directory", zap.Error(err))
	}

	dataDir := app.DefaultDataDir()
	history, err := infrastructure.NewSQLiteHistoryRepository(filepath.Join(dataDir, "history.db"))
	if err != nil {
		log.Fatal("Failed to initialize history repository", zap.Error(err))
	}
	defer history.Close()

	runner := infrastructure.NewYTDLPRunner(config.Tool.Binary, log)
	registry := app.NewJobRegistry()
	orchestrator := app.NewOrchestrator(registry, runner, store, history, log)

	router := api.NewRouter(api.Dependencies{
		Orchestrator: orchestrator,
		ConfigStore:  store,
		Catalog:      infrastructure.NewFileCatalog(),
		History:      history,
		Logger:       log,
		Version:      version,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	pidPath := filepath.Join(dataDir, "server.pid")
	if err := writePIDFile(pidPath); err != nil {
		log.Warn("Failed to write pid file", zap.Error(err))
	}
	defer os.Remove(pidPath)

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Kill running downloads first so their terminal states are recorded
	// before the HTTP surface goes away.
	if err := orchestrator.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping orchestrator", zap.Error(err))
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}
