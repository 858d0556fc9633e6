// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Command beacon runs the haptic beacon service.
//
//	beacon run                 # MQTT in, haptics and audio out
//	beacon simulate -d 30s     # mock poses, log sinks, no broker
//	beacon display             # SSD1306 status screen
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/haptic_beacon/internal/app"
	"github.com/relabs-tech/haptic_beacon/internal/config"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "beacon",
		Short:        "Point a phone-sized wand at a GPS beacon and feel it",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "./beacon_config.txt", "path to configuration file")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the beacon service against MQTT",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Main(configPath, app.RunBeacon)
		},
	})

	var duration time.Duration
	simulate := &cobra.Command{
		Use:   "simulate",
		Short: "Run the beacon against a mock pose source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Main(configPath, func(ctx context.Context, cfg *config.Config) error {
				if duration > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, duration)
					defer cancel()
				}
				return app.RunSimulate(ctx, cfg)
			})
		},
	}
	simulate.Flags().DurationVarP(&duration, "duration", "d", 0, "stop after this long (0 runs until interrupted)")
	root.AddCommand(simulate)

	root.AddCommand(&cobra.Command{
		Use:   "display",
		Short: "Show the beacon status on an SSD1306 OLED",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Main(configPath, app.RunDisplay)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "beacon", version)
		},
	})
	return root
}
