// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"rhythm/internal/config"
	"rhythm/internal/log"
	"rhythm/pkg/build"
)

// EnvPrefix namespaces the environment variables bound to CLI flags, e.g.
// RHYTHM_LOG_LEVEL or RHYTHM_DEVICE.
const EnvPrefix = "RHYTHM"

// app carries state shared by the subcommands of one invocation.
type app struct {
	v   *viper.Viper
	cfg *config.Config
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	buildInfo := build.GetBuildFlags()

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         build.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize(cmd)
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringP("config", "c", "",
		"Config file (default is ./"+config.DefaultPath+" when present)")
	rootCmd.PersistentFlags().String("log-level", "",
		"Log level: debug, info, warn, error (overrides the config file)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false,
		"Shorthand for --log-level debug")

	rootCmd.AddCommand(
		newRunCommand(a),
		newAnalyzeCommand(a),
		newDevicesCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return rootCmd
}

// Execute runs the CLI with os.Args.
func Execute() error {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(os.Args[1:])
	return rootCmd.Execute()
}

// initialize binds the command's flags to viper, loads the configuration and
// applies the log level.
func (a *app) initialize(cmd *cobra.Command) error {
	a.v.SetEnvPrefix(EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()
	if err := bindFlags(cmd, a.v); err != nil {
		return err
	}

	// Set a provisional level so configuration warnings honour --log-level.
	if lvl := a.v.GetString("log-level"); lvl != "" {
		a.applyLogLevel(lvl)
	}

	cfg, err := config.LoadConfig(a.v.GetString("config"))
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	if lvl := a.v.GetString("log-level"); lvl != "" {
		level = lvl
	}
	if a.v.GetBool("verbose") {
		level = "debug"
	}
	a.applyLogLevel(level)
	return nil
}

func (a *app) applyLogLevel(name string) {
	if name == "" {
		return
	}
	lvl, ok := log.ParseLevel(name)
	if !ok {
		log.Warnf("unknown log level %q, using %s", name, lvl)
	}
	log.SetLevel(lvl)
}

// bindFlags binds every flag of cmd (local and inherited) to v, with an
// RHYTHM_ environment variable per flag.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			lastErr = err
		}
		envName := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		if err := v.BindEnv(f.Name, envName); err != nil {
			lastErr = err
		}
	})
	if lastErr != nil {
		return fmt.Errorf("binding flags: %w", lastErr)
	}
	return nil
}

// changed reports whether the flag name was set on the command line or via
// its environment variable.
func (a *app) changed(name string) bool {
	return a.v.IsSet(name)
}
