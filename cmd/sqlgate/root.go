package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sqlgate",
	Short: "Policy-bounded SQL gateway for AI agents",
	Long: `sqlgate exposes MySQL-family and PostgreSQL databases as MCP tools
behind a static SQL safety boundary: read-only by default, single
statements only, optional single-table scoping, and per-call
connections resolved from flexible multi-target configuration.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sqlgate.yaml)")
}

// initConfig reads the config file and matching environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("sqlgate")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SQLGATE")
	viper.AutomaticEnv()

	// Missing config file is fine: targets can come entirely from the
	// environment.
	_ = viper.ReadInConfig()
}
