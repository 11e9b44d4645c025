// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

// selection: print the text selected in the focused application.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aymanbagabas/go-nativeselection"
	"github.com/aymanbagabas/go-nativeselection/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selection",
		Short: "Print the selected text of the focused application",
		Long: `selection prints the text currently selected in the focused application
to stdout. Nothing is printed when nothing is selected or the platform denies
access; the exit status is 0 either way. Use --log-level debug to see which
strategies ran.

On macOS the process needs the Accessibility permission. On Linux the X11 or
Wayland primary selection is read, depending on XDG_SESSION_TYPE.

Config file search order (first found wins):
  /etc/selection/selection.toml
  $HOME/.config/selection/selection.toml
  path supplied via --config

All flags can be set via SELECTION_<FLAG> env vars or config-file keys.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PreRunE:      func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:         func(cmd *cobra.Command, _ []string) error { return runSelection(cmd, v) },
	}

	cmd.Flags().Bool("json", false, `print {"text": ..., "empty": ...} instead of the raw text`)
	addSelectorFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	cmd.AddCommand(
		newVersionCmd(),
		newEnvCmd(),
	)
	return cmd
}

func runSelection(cmd *cobra.Command, v *viper.Viper) error {
	log := setupLogging(v, cmd.ErrOrStderr())
	res := nativeselection.New(selectorOptions(v, log)...).Retrieve()
	return writeResult(cmd.OutOrStdout(), res, v.GetBool("json"))
}

type output struct {
	Text  string `json:"text"`
	Empty bool   `json:"empty"`
}

// writeResult prints res. Raw text gets a trailing newline only on a terminal,
// so piping the output keeps the selection byte for byte.
func writeResult(w io.Writer, res nativeselection.Result, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(output{Text: res.Text, Empty: res.Empty()})
	}
	if res.Empty() {
		return nil
	}
	if logging.IsTTY(w) {
		_, err := fmt.Fprintln(w, res.Text)
		return err
	}
	_, err := io.WriteString(w, res.Text)
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "selection %s\n", Version)
		},
	}
}

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Print the session signals used to pick a Linux selection protocol",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			writeEnv(cmd.OutOrStdout(), nativeselection.EnvironmentFromProcess())
		},
	}
}

func writeEnv(w io.Writer, env *nativeselection.Environment) {
	sessionType, ok := env.SessionType()
	if !ok {
		sessionType = "(unset)"
	}
	backend := env.Backend()
	if backend == "" {
		backend = "(unset)"
	}
	fmt.Fprintf(w, "%s=%s\n", nativeselection.SessionTypeVar, sessionType)
	fmt.Fprintf(w, "%s=%s\n", nativeselection.BackendVar, backend)
}
