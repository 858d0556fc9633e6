// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/haptic_beacon/internal/config"
	"github.com/relabs-tech/haptic_beacon/internal/log"
)

// RunFunc is one of the Run* entry points of this package.
type RunFunc func(ctx context.Context, cfg *config.Config) error

// Main loads the configuration, sets the log level and runs fn until
// SIGINT or SIGTERM.
func Main(configPath string, fn RunFunc) error {
	if err := config.InitGlobal(configPath); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.Get()
	log.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx, cfg)
}
