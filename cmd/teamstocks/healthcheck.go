package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newHealthcheckCmd() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe a running server's /healthz endpoint",
		Long:  `Exits 0 when the server answers 200 on /healthz and 1 otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				port := os.Getenv("PORT")
				if port == "" {
					port = "8080"
				}
				url = fmt.Sprintf("http://localhost:%s/healthz", port)
			}
			return healthcheck(url)
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "health endpoint to probe (default http://localhost:$PORT/healthz)")
	return cmd
}

func healthcheck(url string) error {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: %s returned %d", url, resp.StatusCode)
	}
	return nil
}
