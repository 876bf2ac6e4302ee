package cmd

import (
	"github.com/spf13/cobra"

	"example.com/backstage/analytics/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Civil-registration analytics projection",
	Long:  `Projects civil-registration event documents into analytics tables and search indices`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			config.SetConfigFile(cfgFile)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
