// plugctl is a small CLI client for the plughub server API. It covers the
// same operations the web page offers: show status, request a verification
// code, switch the socket and trigger a status refresh.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/plughub-io/plughub/internal/hub/core"
	"github.com/plughub-io/plughub/internal/hub/core/device"
)

var serverAddr string

func main() {
	root := &cobra.Command{
		Use:           "plugctl",
		Short:         "Control the laundry socket through a plughub server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&serverAddr, "server", "s", "http://localhost:8080", "Base URL of the plughub server.")

	root.AddCommand(newStatusCommand())
	root.AddCommand(newRequestCodeCommand())
	root.AddCommand(newControlCommand())
	root.AddCommand(newRefreshCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current socket status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap device.Snapshot
			if err := apiGet("/api/status", &snap); err != nil {
				return err
			}

			table := uitable.New()
			table.AddRow("POWER:", string(snap.Status))
			table.AddRow("SIGNAL:", snap.Signal)
			table.AddRow("ONLINE:", fmt.Sprintf("%t", snap.Online))
			lastUpdate := "never"
			if snap.LastUpdate != nil {
				lastUpdate = snap.LastUpdate.Local().Format(time.RFC3339)
			}
			table.AddRow("LAST UPDATE:", lastUpdate)
			fmt.Println(table)
			return nil
		},
	}
}

func newRequestCodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "request-code <on|off>",
		Short: "Request a verification code for switching the socket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation("/api/request_verification", map[string]string{
				"action": args[0],
			})
		},
	}
}

func newControlCommand() *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "control <on|off>",
		Short: "Switch the socket using a previously requested code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation("/api/control", map[string]string{
				"action": args[0],
				"code":   code,
			})
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "The verification code received via DingTalk.")
	return cmd
}

func newRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Ask the socket to report its status and signal strength",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation("/api/refresh", map[string]string{})
		},
	}
}

// runOperation POSTs a session operation and renders its result. A failed
// result is an error so the exit code reflects it.
func runOperation(path string, body map[string]string) error {
	var result core.Result
	if err := apiPost(path, body, &result); err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("%s", result.Message)
	}
	fmt.Println(result.Message)
	if result.DeviceOffline {
		fmt.Println("Note: the device appears offline and may not answer.")
	}
	return nil
}

func apiGet(path string, out any) error {
	resp, err := httpClient().Get(serverAddr + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiPost(path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := httpClient().Post(serverAddr+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
