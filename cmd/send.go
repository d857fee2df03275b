package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/telematics/qa/scenarios"
)

var sendOpts struct {
	scenario string
	server   string
	apiKey   string
	timeout  time.Duration
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Post the events of a scenario file to a running server",
	RunE:  runSend,
}

func init() {
	f := sendCmd.Flags()
	f.StringVar(&sendOpts.scenario, "scenario", "", "scenario YAML file")
	f.StringVar(&sendOpts.server, "server", "http://localhost:3000", "server base URL")
	f.StringVar(&sendOpts.apiKey, "api-key", "", "value of the X-API-Key header")
	f.DurationVar(&sendOpts.timeout, "timeout", 10*time.Second, "per-request timeout")
	_ = sendCmd.MarkFlagRequired("scenario")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	sc, err := scenarios.Load(sendOpts.scenario)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	client := &http.Client{Timeout: sendOpts.timeout}
	return scenarios.Post(cmd.Context(), client, sendOpts.server, sendOpts.apiKey, sc, time.Now(), cmd.OutOrStdout())
}
