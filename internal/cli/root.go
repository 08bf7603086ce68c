// Package cli assembles the chatctl command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chatctl/internal/config"
	"chatctl/internal/fsutil"
)

// Settings carries the resolved configuration and logger for all commands.
type Settings struct {
	Cfg config.Config
	Log zerolog.Logger
}

// Execute runs the CLI and returns the process exit code.
func Execute(args []string) int {
	root := buildRootCmd(&Settings{})
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// buildRootCmd constructs the Cobra command tree. Settings are resolved in
// PersistentPreRunE so every subcommand sees the same precedence:
// defaults < config file < environment < flags.
func buildRootCmd(st *Settings) *cobra.Command {
	root := &cobra.Command{
		Use:           "chatctl",
		Short:         "Client tooling for OpenAI-compatible chat completion servers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "Config file (yaml|json|toml); defaults to ~/.config/chatctl/")
	root.PersistentFlags().String("base-url", "", "Server base URL, e.g. http://127.0.0.1:8080")
	root.PersistentFlags().String("api-key", "", "Bearer token (defaults CHATCTL_API_KEY)")
	root.PersistentFlags().String("model", "", "Model id or path")
	root.PersistentFlags().Int("timeout", 0, "Request timeout in seconds")
	root.PersistentFlags().String("log-level", "warn", "Log level: debug|info|warn|error")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// .env is optional; absence is not an error.
		_ = godotenv.Load()

		cfg := config.Config{}
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path = fsutil.FindConfig()
		}
		if path != "" {
			loaded, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded
		}
		cfg = cfg.OverlayEnv()
		if cmd.Flags().Changed("base-url") {
			cfg.BaseURL, _ = cmd.Flags().GetString("base-url")
		}
		if cmd.Flags().Changed("api-key") {
			cfg.APIKey, _ = cmd.Flags().GetString("api-key")
		}
		if cmd.Flags().Changed("model") {
			cfg.Model, _ = cmd.Flags().GetString("model")
		}
		if cmd.Flags().Changed("timeout") {
			cfg.TimeoutSeconds, _ = cmd.Flags().GetInt("timeout")
		}
		st.Cfg = cfg.Fill(config.Default())

		level, _ := cmd.Flags().GetString("log-level")
		st.Log = newLogger(level)
		return nil
	}

	root.AddCommand(buildChatCmd(st))
	root.AddCommand(buildModelsCmd(st))
	root.AddCommand(buildTUICmd(st))
	root.AddCommand(buildRelayCmd(st))
	return root
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}
