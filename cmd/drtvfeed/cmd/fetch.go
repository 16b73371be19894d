package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/voyagen/drtvfeed/internal/config"
	"github.com/voyagen/drtvfeed/internal/fetcher"
	"github.com/voyagen/drtvfeed/internal/service"
)

var fetchIDs string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run the pipeline once and print the channel mapping as JSON",
	RunE: func(c *cobra.Command, _ []string) error {
		ids := cfg.Provider.ChannelIDs
		if fetchIDs != "" {
			ids = config.SplitIDs(fetchIDs)
		}
		provider := fetcher.NewProvider(fetcher.NewClient(cfg.Provider, nil), cfg.Provider, cfg.Schedule, log)
		channels, err := service.NewPipeline(provider, nil, log).Run(c.Context(), ids)
		if err != nil {
			log.WithError(err).Warn("No data received")
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(channels)
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchIDs, "ids", "", "comma-separated channel ids (default from config)")
}
