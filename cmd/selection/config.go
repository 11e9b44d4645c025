// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aymanbagabas/go-nativeselection"
	"github.com/aymanbagabas/go-nativeselection/internal/logging"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and SELECTION_* env var prefix.
//
// Precedence (lowest to highest): defaults, config file, SELECTION_* env vars, flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("selection")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/selection/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.config/selection", home))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("SELECTION")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: warn)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addSelectorFlags adds the retrieval timing flags to a command.
func addSelectorFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("settle-attempts", nativeselection.DefaultSettlePolicy.Attempts, "clipboard checks after a copy is triggered")
	f.Duration("settle-delay", nativeselection.DefaultSettlePolicy.Delay, "delay before each clipboard check")
	f.Duration("primary-timeout", nativeselection.DefaultPrimaryTimeout, "wait for the X11 selection owner")
	f.Duration("paste-timeout", nativeselection.DefaultPasteTimeout, "wait for wl-paste on Wayland")
}

// setupLogging reads logging flags from viper and installs a logger writing
// to w as the slog default. The command stays quiet unless asked, so the
// level defaults to warn.
func setupLogging(v *viper.Viper, w io.Writer) *slog.Logger {
	format := logging.ParseFormat(v.GetString("log-format"))
	level := logging.ParseLevel(v.GetString("log-level"), slog.LevelWarn)
	return logging.Setup(w, format, level)
}

// selectorOptions builds the Selector options from viper.
func selectorOptions(v *viper.Viper, log *slog.Logger) []nativeselection.Option {
	return []nativeselection.Option{
		nativeselection.WithLogger(log),
		nativeselection.WithSettlePolicy(nativeselection.RetryPolicy{
			Attempts: v.GetInt("settle-attempts"),
			Delay:    v.GetDuration("settle-delay"),
		}),
		nativeselection.WithPrimaryTimeout(v.GetDuration("primary-timeout")),
		nativeselection.WithPasteTimeout(v.GetDuration("paste-timeout")),
	}
}
