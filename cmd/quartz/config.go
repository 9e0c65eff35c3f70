package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OvercastBTC/Quartz-RTE-sub000/internal/logging"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and QUARTZ_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → QUARTZ_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("quartz")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/quartz/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.config/quartz", home))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("QUARTZ")
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "warn", "log level: debug|info|warn|error")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addPandocFlag adds the --pandoc flag to commands that convert.
func addPandocFlag(cmd *cobra.Command) {
	cmd.Flags().String("pandoc", "", "path to the pandoc binary (default: search PATH)")
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	logging.Setup(
		logging.ParseFormat(v.GetString("log-format")),
		logging.ParseLevel(v.GetString("log-level")),
	)
}
