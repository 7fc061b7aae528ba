package cmd

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"lidarpt/config"
	"lidarpt/httpapi"
	"lidarpt/ioformats"
)

var (
	serveHistoryPath string
	serveAddr        string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only HTTP status surface against a history store",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHistoryPath, "history", "", "sqlite history store file (required)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	_ = serveCmd.MarkFlagRequired("history")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newRunLogger("serve")

	store, err := ioformats.OpenHistoryStore(serveHistoryPath)
	if err != nil {
		return errors.Wrap(err, "opening history store")
	}
	defer store.Close()

	status := func() httpapi.Status {
		return httpapi.Status{Phase: "idle", PhaseTimings: map[string]string{}, Telemetry: config.NewTelemetry()}
	}
	server := httpapi.New(status, store)

	logger.Printf("listening on %s", serveAddr)
	return http.ListenAndServe(serveAddr, server.Handler())
}
