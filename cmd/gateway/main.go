package main

import (
	"os"

	"public-audio-gateway/config"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "gateway",
	Short:        "Public audio gateway",
	Long:         "Serves shared audio assets by slug with per-client throttling and per-account monthly play quotas.",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("GATEWAY_CONFIG"), "path to a YAML config file (env GATEWAY_CONFIG)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(apikeyCmd)
	rootCmd.AddCommand(probeCmd)
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}
