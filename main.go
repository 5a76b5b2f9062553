package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/parisxmas/icpform/internal/config"
	"github.com/parisxmas/icpform/internal/gelf"
)

const (
	Version = "0.1.0"
	appName = "icpform"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Ideal Customer Profile questionnaire service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}

	cmd.AddCommand(serveCmd(load), seedCmd(load), fillCmd(load), listCmd(load))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	return cmd
}

type loader func() (*config.Config, error)

// setupLogging adds the GELF sink next to stderr when configured.
func setupLogging(cfg *config.Config) io.Closer {
	if cfg.GelfAddr == "" {
		return nil
	}
	gelfWriter, err := gelf.New(cfg.GelfAddr, appName)
	if err != nil {
		log.Printf("Warning: GELF init failed: %v", err)
		return nil
	}
	log.SetOutput(io.MultiWriter(os.Stderr, gelfWriter))
	log.Printf("GELF logging: enabled (%s)", cfg.GelfAddr)
	return gelfWriter
}
