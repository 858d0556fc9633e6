// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/haptic_beacon/internal/beacon"
	"github.com/relabs-tech/haptic_beacon/internal/config"
	"github.com/relabs-tech/haptic_beacon/internal/log"
)

const (
	displayW = 128
	displayH = 64

	// the offset bar spans ±barRange degrees
	barRange = 90.0
)

// RunDisplay shows the beacon status on an SSD1306 OLED until ctx is
// cancelled.
func RunDisplay(ctx context.Context, cfg *config.Config) error {
	l := log.With("component", "display")

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	opts := ssd1306.DefaultOpts
	opts.Addr = cfg.DisplayI2CAddr
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	l.Info("display initialized", "addr", fmt.Sprintf("0x%02X", cfg.DisplayI2CAddr))

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		l.Warn("error showing splash", "error", err)
	}

	var (
		mu   sync.RWMutex
		last *beacon.Status
	)

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribe(client, cfg.TopicStatus, func(_ mqtt.Client, msg mqtt.Message) {
		var st beacon.Status
		if err := json.Unmarshal(msg.Payload(), &st); err != nil {
			l.Warn("status unmarshal error", "error", err)
			return
		}
		mu.Lock()
		last = &st
		mu.Unlock()
	}); err != nil {
		return err
	}
	l.Info("subscribed", "topic", cfg.TopicStatus)

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = dev.Halt()
			return nil
		case <-ticker.C:
			mu.RLock()
			st := last
			mu.RUnlock()
			if err := dev.Draw(dev.Bounds(), renderStatus(st), image.Point{}); err != nil {
				l.Warn("error updating display", "error", err)
			}
		}
	}
}

func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayW, displayH))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawLine(d *font.Drawer, x, y int, s string) {
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

func renderSplash() *image1bit.VerticalLSB {
	img, d := newFrame()
	drawLine(d, 10, 26, "Haptic Beacon")
	drawLine(d, 5, 43, "Waiting for")
	drawLine(d, 25, 56, "GPS fix")
	return img
}

// renderStatus draws the status page. A nil status shows the waiting
// screen.
func renderStatus(st *beacon.Status) *image1bit.VerticalLSB {
	img, d := newFrame()
	if st == nil || !st.Active {
		drawLine(d, 0, 26, "Beacon idle")
		drawLine(d, 0, 39, "Waiting...")
		return img
	}

	if st.Distance != nil && st.Bearing != nil {
		drawLine(d, 0, 11, fmt.Sprintf("%s  B:%03.0f", formatDistance(*st.Distance), *st.Bearing))
	}
	if st.Heading != nil {
		drawLine(d, 0, 24, fmt.Sprintf("H:%03.0f %s", st.Heading.Value, st.Heading.Source))
	}

	flags := ""
	if st.Focused {
		flags += "FOCUS "
	}
	if st.Flat {
		flags += "FLAT "
	}
	if st.Playing {
		flags += fmt.Sprintf("%3.0f%%", st.Volume*100)
	}
	drawLine(d, 0, 37, flags)

	if st.Offset != nil {
		drawOffsetBar(img, *st.Offset)
	}
	return img
}

// drawOffsetBar draws a centre tick and a marker at the offset, clamped
// to the bar's range, along the bottom rows.
func drawOffsetBar(img *image1bit.VerticalLSB, offset float64) {
	const top, bottom = 50, 63
	mid := displayW / 2
	for y := top; y <= bottom; y++ {
		img.SetBit(mid, y, image1bit.On)
	}
	for x := 0; x < displayW; x++ {
		img.SetBit(x, bottom, image1bit.On)
	}

	o := math.Max(-barRange, math.Min(barRange, offset))
	x := mid + int(math.Round(o/barRange*float64(mid-2)))
	for dx := -2; dx <= 2; dx++ {
		for y := top + 3; y < bottom; y++ {
			img.SetBit(x+dx, y, image1bit.On)
		}
	}
}

func formatDistance(m float64) string {
	if m >= 1000 {
		return fmt.Sprintf("%.1fkm", m/1000)
	}
	return fmt.Sprintf("%.0fm", m)
}
