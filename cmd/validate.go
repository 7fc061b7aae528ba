package cmd

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"lidarpt/config"
	"lidarpt/executor"
	"lidarpt/graph"
	"lidarpt/ioformats"
	"lidarpt/model"
)

var (
	validateNetworkPath  string
	validateRequestsPath string
	validateConfigPath   string
	validatePlanDir      string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Re-run the executor/validator over a previously decoded plan",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateNetworkPath, "network", "", "network JSON file (required)")
	validateCmd.Flags().StringVar(&validatePlanDir, "plan", "", "directory of previously written bus_*.csv route files (required)")
	validateCmd.Flags().StringVar(&validateRequestsPath, "requests", "", "requests CSV file (required): the bus route CSVs carry no time-window data, so reconstructing it needs the original requests")
	validateCmd.Flags().StringVar(&validateConfigPath, "config", "", "planning config JSON file (required)")
	for _, name := range []string{"network", "plan", "requests", "config"} {
		_ = validateCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()
	logger := newRunLogger(runID)

	cfg, err := config.Load(validateConfigPath)
	if err != nil {
		return errors.Wrap(err, "loading config")
	}

	networkFile, err := os.Open(validateNetworkPath)
	if err != nil {
		return errors.Wrap(err, "opening network file")
	}
	defer networkFile.Close()
	network, err := ioformats.LoadNetwork(networkFile, cfg.CapacityPerLine)
	if err != nil {
		return errors.Wrap(err, "loading network")
	}

	lineGraph := graph.NewLineGraph(network.Lines, cfg.KmPerUnit, cfg.AverageKmh)
	model.ResetSplitIDs()

	requestsFile, err := os.Open(validateRequestsPath)
	if err != nil {
		return errors.Wrap(err, "opening requests file")
	}
	defer requestsFile.Close()
	requests, err := ioformats.LoadRequests(requestsFile, lineGraph, network.Lines, network.Stops, cfg)
	if err != nil {
		return errors.Wrap(err, "loading requests")
	}
	requestsByID := make(map[int]*model.Request, len(requests))
	for _, r := range requests {
		requestsByID[r.ID] = r
	}

	var routes []*model.Route
	for _, bus := range network.Buses {
		path := filepath.Join(validatePlanDir, "bus_"+strconv.Itoa(bus.ID)+".csv")
		f, err := os.Open(path)
		if os.IsNotExist(err) {
			logger.Printf("no route file for bus %d at %s, skipping", bus.ID, path)
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "opening %s", path)
		}
		route, err := ioformats.ReadBusRoute(f, bus, requestsByID, network.Stops)
		f.Close()
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}
		routes = append(routes, route)
	}

	if err := executor.New(network.Buses, requests, cfg).ValidateRoutes(routes); err != nil {
		logger.Printf("plan invalid: %v", err)
		return err
	}

	logger.Printf("plan valid: %d routes, %d requests", len(routes), len(requests))
	return nil
}
