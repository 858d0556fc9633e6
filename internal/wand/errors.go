// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package wand

import "errors"

var (
	// ErrInvalidTarget is returned for a degenerate window or an empty
	// target list.
	ErrInvalidTarget = errors.New("wand: invalid target")

	// ErrAlreadyStarted is returned by Start while tracking.
	ErrAlreadyStarted = errors.New("wand: already started")

	// ErrNotStarted is returned when feeding samples to an idle wand.
	ErrNotStarted = errors.New("wand: not started")
)
