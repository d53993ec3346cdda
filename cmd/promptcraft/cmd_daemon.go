package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/config"
)

const logTailBytes = 4096

// daemonClient talks to a running promptcraftd
type daemonClient struct {
	base string
	http *http.Client
}

func newDaemonClient(base string) *daemonClient {
	return &daemonClient{base: base, http: &http.Client{Timeout: 2 * time.Second}}
}

// daemonStatus mirrors the /v1/status response
type daemonStatus struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Go        string `json:"go"`
	UptimeSec int    `json:"uptime_sec"`
	Storage   string `json:"storage"`
	Queue     bool   `json:"queue"`
	Catalog   struct {
		ModuleCount   int `json:"module_count"`
		ExerciseCount int `json:"exercise_count"`
		StepCount     int `json:"step_count"`
	} `json:"catalog"`
	Sessions struct {
		Active    int `json:"active"`
		Completed int `json:"completed"`
	} `json:"sessions"`
}

// healthy reports whether the health endpoint answers 200
func (c *daemonClient) healthy() bool {
	resp, err := c.http.Get(c.base + "/v1/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *daemonClient) status() (*daemonStatus, error) {
	resp, err := c.http.Get(c.base + "/v1/status")
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get status: %s", resp.Status)
	}

	var st daemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("parse status: %w", err)
	}
	return &st, nil
}

// waitFor polls healthy until it equals want or the attempts run out
func (c *daemonClient) waitFor(want bool, attempts int, interval time.Duration) bool {
	for range attempts {
		time.Sleep(interval)
		if c.healthy() == want {
			return true
		}
		fmt.Print(".")
	}
	return false
}

func printStatus(w io.Writer, st *daemonStatus, addr string) {
	fmt.Fprintf(w, "Status:    %s\n", st.Status)
	fmt.Fprintf(w, "Version:   %s (%s)\n", st.Version, st.Go)
	fmt.Fprintf(w, "Uptime:    %s\n", time.Duration(st.UptimeSec)*time.Second)
	fmt.Fprintf(w, "Catalog:   %d modules, %d exercises, %d steps\n",
		st.Catalog.ModuleCount, st.Catalog.ExerciseCount, st.Catalog.StepCount)
	fmt.Fprintf(w, "Sessions:  %d active, %d completed\n", st.Sessions.Active, st.Sessions.Completed)
	fmt.Fprintf(w, "Storage:   %s\n", st.Storage)
	queue := "off"
	if st.Queue {
		queue = "connected"
	}
	fmt.Fprintf(w, "Queue:     %s\n", queue)
	fmt.Fprintf(w, "Address:   %s\n", addr)
}

// cmdStart launches promptcraftd detached and waits for it to report healthy
func cmdStart() error {
	client := newDaemonClient(daemonAddr())
	if client.healthy() {
		fmt.Println("✓ Daemon is already running")
		return nil
	}

	dir, err := config.EnsureDir()
	if err != nil {
		return fmt.Errorf("setup promptcraft directory: %w", err)
	}

	daemonPath, err := findDaemonBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(daemonPath)
	cmd.Dir = dir
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	// the daemon outlives this process
	_ = cmd.Process.Release()

	fmt.Print("Starting daemon...")
	if client.waitFor(true, 30, 100*time.Millisecond) {
		fmt.Println(" ✓")
		fmt.Printf("Daemon running at %s\n", client.base)
		return nil
	}

	fmt.Println(" ✗")
	return errors.New("daemon failed to start (check 'promptcraft logs')")
}

// cmdStop signals the daemon recorded in the PID file
func cmdStop() error {
	client := newDaemonClient(daemonAddr())
	if !client.healthy() {
		fmt.Println("Daemon is not running")
		return nil
	}

	dir, err := config.Dir()
	if err != nil {
		return err
	}
	pid, err := readPID(filepath.Join(dir, pidFile))
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}

	fmt.Print("Stopping daemon...")
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal process %d: %w", pid, err)
	}

	// shutdown drains sessions and the queue, allow up to 5s
	if client.waitFor(false, 50, 100*time.Millisecond) {
		fmt.Println(" ✓")
		return nil
	}

	fmt.Println(" ✗")
	return errors.New("daemon did not stop gracefully")
}

func cmdStatus() error {
	client := newDaemonClient(daemonAddr())
	if !client.healthy() {
		fmt.Println("Status: stopped")
		return nil
	}

	st, err := client.status()
	if err != nil {
		return err
	}
	printStatus(os.Stdout, st, client.base)
	return nil
}

// cmdLogs prints the most recent daemon log lines
func cmdLogs() error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultLocalConfig()
	}

	err = tailLog(os.Stdout, cfg.LogFile(dir), logTailBytes)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Println("No log file found. Start the daemon first.")
		return nil
	}
	return err
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID in %s: %q", path, strings.TrimSpace(string(data)))
	}
	return pid, nil
}

// tailLog writes the complete lines found in the last n bytes of path
func tailLog(w io.Writer, path string, n int64) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	offset := max(info.Size()-n, 0)
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	reader := bufio.NewReader(file)
	if offset > 0 {
		// first line is partial
		_, _ = reader.ReadString('\n')
	}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		fmt.Fprintln(w, scanner.Text())
	}
	return scanner.Err()
}

// findDaemonBinary looks on PATH, then next to this executable
func findDaemonBinary() (string, error) {
	if path, err := exec.LookPath("promptcraftd"); err == nil {
		return path, nil
	}

	if self, err := os.Executable(); err == nil {
		path := filepath.Join(filepath.Dir(self), "promptcraftd")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", errors.New("promptcraftd not found on PATH or next to promptcraft (go install ./cmd/promptcraftd)")
}
