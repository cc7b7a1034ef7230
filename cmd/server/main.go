package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/driftchat/driftchat-server/internal/app"
	"github.com/driftchat/driftchat-server/internal/auth"
	"github.com/driftchat/driftchat-server/internal/config"
	"github.com/driftchat/driftchat-server/internal/log"
)

var (
	flagConfigPath string
	flagAddr       string
	flagLogLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "driftchat-server",
		Short:         "Realtime presence and direct-message delivery server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to config.yaml")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "HTTP listen address")
	rootCmd.AddCommand(serveCmd)

	tokenCmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a bootstrap token for a user (development helper)",
		Args:  cobra.ExactArgs(1),
		RunE:  runToken,
	}
	rootCmd.AddCommand(tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "driftchat-server: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	bootLogger := log.New("info")
	cfg, path, err := config.Load(bootLogger, flagConfigPath)
	if err != nil {
		return cfg, fmt.Errorf("load config from %s: %w", path, err)
	}
	if flagAddr != "" {
		cfg.Addr = flagAddr
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := log.New(cfg.LogLevel)

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("addr", cfg.Addr).Msg("starting driftchat server")
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func runToken(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required to mint tokens")
	}

	token, err := auth.GenerateToken(app.JWTConfig(cfg), args[0], args[0])
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	fmt.Println(token)
	return nil
}
