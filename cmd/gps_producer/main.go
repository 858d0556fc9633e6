// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"os"

	"github.com/relabs-tech/haptic_beacon/internal/app"
	"github.com/relabs-tech/haptic_beacon/internal/log"
)

func main() {
	configPath := flag.String("config", "./beacon_config.txt", "path to configuration file")
	flag.Parse()

	log.Info("starting haptic-beacon GPS producer (NMEA → MQTT)")

	if err := app.Main(*configPath, app.RunGPSProducer); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}
