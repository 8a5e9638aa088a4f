package main

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const (
	serverStartTimeout = 10 * time.Second
	serverStopTimeout  = 15 * time.Second
	serverPollInterval = 200 * time.Millisecond
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage the background server",
}

func init() {
	serverCmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start the server in the background",
		Run: func(cmd *cobra.Command, args []string) {
			if isServerRunning() {
				fmt.Println("Server is already running")
				return
			}
			if err := startServerBackground(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if err := waitForServerReady(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Server started")
		},
	})

	serverCmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the background server",
		Run: func(cmd *cobra.Command, args []string) {
			if err := stopServer(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Server stopped")
		},
	})

	serverCmd.AddCommand(&cobra.Command{
		Use:   "restart",
		Short: "Restart the background server",
		Run: func(cmd *cobra.Command, args []string) {
			if isServerRunning() {
				if err := stopServer(); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					os.Exit(1)
				}
			}
			if err := startServerBackground(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if err := waitForServerReady(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Server restarted")
		},
	})

	serverCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Check whether the server is running",
		Run: func(cmd *cobra.Command, args []string) {
			if isServerRunning() {
				fmt.Println("Server is running")
				return
			}
			fmt.Println("Server is not running")
		},
	})

	serverCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the server in the foreground",
		Run: func(cmd *cobra.Command, args []string) {
			serverPath, err := findServerBinary()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			run := exec.Command(serverPath, "-foreground")
			run.Stdin = os.Stdin
			run.Stdout = os.Stdout
			run.Stderr = os.Stderr
			if err := run.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	})
}

// isServerRunning checks if the server is responding to health checks.
func isServerRunning() bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// findServerBinary locates the ytdlp-api-server binary.
func findServerBinary() (string, error) {
	// 1. Check same directory as CLI binary
	execPath, err := os.Executable()
	if err == nil {
		execDir := filepath.Dir(execPath)
		serverPath := filepath.Join(execDir, "ytdlp-api-server")
		if _, err := os.Stat(serverPath); err == nil {
			return serverPath, nil
		}
	}

	// 2. Check PATH
	serverPath, err := exec.LookPath("ytdlp-api-server")
	if err == nil {
		return serverPath, nil
	}

	// 3. Check common locations
	commonPaths := []string{
		"/usr/local/bin/ytdlp-api-server",
		"/usr/bin/ytdlp-api-server",
		filepath.Join(os.Getenv("HOME"), "go/bin/ytdlp-api-server"),
		filepath.Join(os.Getenv("HOME"), ".local/bin/ytdlp-api-server"),
	}
	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("ytdlp-api-server binary not found")
}

// startServerBackground launches the server binary, which daemonizes
// itself.
func startServerBackground() error {
	serverPath, err := findServerBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(serverPath)
	setSysProcAttr(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	go cmd.Wait()

	return nil
}

// pidFilePath returns where the server records its PID.
func pidFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".ytdlp-api", "server.pid")
	}
	return filepath.Join(home, ".ytdlp-api", "server.pid")
}

// stopServer terminates the daemon recorded in the pid file and waits for
// the health endpoint to go dark.
func stopServer() error {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("server is not running (no pid file)")
		}
		return fmt.Errorf("failed to read pid file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("malformed pid file: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("server process %d not found: %w", pid, err)
	}
	if err := terminateProcess(process); err != nil {
		return fmt.Errorf("failed to signal server process %d: %w", pid, err)
	}

	deadline := time.Now().Add(serverStopTimeout)
	for time.Now().Before(deadline) {
		if !isServerRunning() {
			return nil
		}
		time.Sleep(serverPollInterval)
	}
	return fmt.Errorf("server did not stop within %v", serverStopTimeout)
}

// waitForServerReady polls the server until it's ready or timeout.
func waitForServerReady() error {
	deadline := time.Now().Add(serverStartTimeout)
	for time.Now().Before(deadline) {
		if isServerRunning() {
			return nil
		}
		time.Sleep(serverPollInterval)
	}
	return fmt.Errorf("server did not start within %v", serverStartTimeout)
}

// ensureServerRunning checks if server is running, starts it if not.
func ensureServerRunning() error {
	if isServerRunning() {
		return nil
	}

	fmt.Println("Server not running, starting...")

	if err := startServerBackground(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	if err := waitForServerReady(); err != nil {
		return err
	}

	fmt.Println("Server started successfully")
	return nil
}
