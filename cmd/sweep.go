package cmd

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var sweepOpts struct {
	server    string
	apiKey    string
	olderThan time.Duration
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Trigger a retention sweep on a running server",
	RunE:  runSweep,
}

func init() {
	f := sweepCmd.Flags()
	f.StringVar(&sweepOpts.server, "server", "http://localhost:3000", "server base URL")
	f.StringVar(&sweepOpts.apiKey, "api-key", "", "value of the X-API-Key header")
	f.DurationVar(&sweepOpts.olderThan, "older-than", 0, "remove events older than this age; 0 uses the server retention")
	rootCmd.AddCommand(sweepCmd)
}

func sweepURL(server string, olderThan time.Duration, now time.Time) string {
	u := strings.TrimSuffix(server, "/") + "/admin/cleanup"
	if olderThan > 0 {
		u += "?olderThan=" + url.QueryEscape(now.Add(-olderThan).UTC().Format(time.RFC3339))
	}
	return u
}

func runSweep(cmd *cobra.Command, args []string) error {
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, sweepURL(sweepOpts.server, sweepOpts.olderThan, time.Now()), nil)
	if err != nil {
		return err
	}
	if sweepOpts.apiKey != "" {
		req.Header.Set("X-API-Key", sweepOpts.apiKey)
	}
	resp, err := (&http.Client{Timeout: 30 * time.Second}).Do(req)
	if err != nil {
		return fmt.Errorf("cleanup request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cleanup failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(body)))
	return nil
}
