package cmd

import (
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run one refresh and publish it to the configured store",
	RunE: func(c *cobra.Command, _ []string) error {
		a, err := newApp(c.Context())
		if err != nil {
			log.WithError(err).Error("startup failed")
			return err
		}
		defer a.close()
		return a.updater.UpdateNow(c.Context())
	},
}
