package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deviceflow/resbroker/internal/cli/output"
)

var (
	statusOutput  string
	statusPidFile string
	statusPort    int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show resbrokerd status",
	Long: `Display the current status of a running resbrokerd process.

This command checks the process's PID file (if any) and calls its status
server's /readyz endpoint to report whether it is serving.

Examples:
  # Check status (uses default settings)
  resbrokerd status

  # Check status with a custom status-server port
  resbrokerd status --port 9090

  # Output as JSON
  resbrokerd status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "path to PID file (default: $XDG_STATE_HOME/resbrokerd/resbrokerd.pid)")
	statusCmd.Flags().IntVar(&statusPort, "port", 8090, "status server port")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "output format (table|json|yaml)")
}

// processStatus is the CLI-facing view of a resbrokerd process's health.
type processStatus struct {
	Running   bool   `json:"running" yaml:"running"`
	PID       int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	Message   string `json:"message" yaml:"message"`
	Healthy   bool   `json:"healthy" yaml:"healthy"`
	Resources int    `json:"resources,omitempty" yaml:"resources,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	status := processStatus{Message: "resbrokerd is not running"}

	pidPath := statusPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}
	if pidData, err := os.ReadFile(pidPath); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(pidData))); err == nil {
			if process, err := os.FindProcess(pid); err == nil {
				if process.Signal(syscall.Signal(0)) == nil {
					status.Running = true
					status.PID = pid
				}
			}
		}
	}

	readyURL := fmt.Sprintf("http://localhost:%d/readyz", statusPort)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(readyURL)
	if err == nil {
		defer func() { _ = resp.Body.Close() }()

		var body struct {
			Status string `json:"status"`
			Data   struct {
				Resources int `json:"resources"`
			} `json:"data"`
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			status.Running = true
			status.Healthy = resp.StatusCode == http.StatusOK && body.Status == "healthy"
			status.Resources = body.Data.Resources
			if status.Healthy {
				status.Message = "resbrokerd is running and ready"
			} else {
				status.Message = fmt.Sprintf("resbrokerd is running but not ready: %s", body.Error)
			}
		} else {
			status.Running = true
			status.Message = "resbrokerd is running but status response is invalid"
		}
	} else if status.Running {
		status.Message = "resbrokerd process exists but its status server did not respond"
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status)
	}

	return nil
}

func printStatusTable(status processStatus) {
	fmt.Println()
	fmt.Println("resbrokerd Status")
	fmt.Println("=================")
	fmt.Println()

	if status.Running {
		if status.Healthy {
			fmt.Printf("  Status:     \033[32m● Running\033[0m\n")
		} else {
			fmt.Printf("  Status:     \033[33m● Running (not ready)\033[0m\n")
		}
		if status.PID != 0 {
			fmt.Printf("  PID:        %d\n", status.PID)
		}
		if status.Resources > 0 {
			fmt.Printf("  Resources:  %d\n", status.Resources)
		}
	} else {
		fmt.Printf("  Status:     \033[31m○ Stopped\033[0m\n")
	}

	fmt.Println()
	fmt.Printf("  %s\n", status.Message)
	fmt.Println()
}
