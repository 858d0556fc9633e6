// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package haptics

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/relabs-tech/haptic_beacon/internal/cue"
)

// manualAfter collects scheduled callbacks so tests can fire them by hand.
type manualAfter struct {
	delays []time.Duration
	fns    []func()
}

func (a *manualAfter) schedule(d time.Duration, f func()) {
	a.delays = append(a.delays, d)
	a.fns = append(a.fns, f)
}

func (a *manualAfter) fireNext() {
	f := a.fns[0]
	a.fns = a.fns[1:]
	f()
}

func newTestMotor(t *testing.T) (*Motor, *gpiotest.Pin, *manualAfter) {
	t.Helper()
	pin := &gpiotest.Pin{N: "GPIO18", Num: 18}
	m, err := NewMotor(pin)
	require.NoError(t, err)
	a := &manualAfter{}
	m.after = a.schedule
	return m, pin, a
}

func TestMotorHeavyPulse(t *testing.T) {
	m, pin, a := newTestMotor(t)

	m.Trigger(cue.ImpactHeavy)
	require.Equal(t, gpio.High, pin.Read())
	require.Equal(t, []time.Duration{120 * time.Millisecond}, a.delays)

	a.fireNext()
	require.Equal(t, gpio.Low, pin.Read())
	require.Empty(t, a.fns)
}

func TestMotorCloseCancelsPendingSteps(t *testing.T) {
	m, pin, a := newTestMotor(t)

	m.Trigger(cue.Error)
	require.Equal(t, gpio.High, pin.Read())
	a.fireNext()
	require.Equal(t, gpio.Low, pin.Read())

	require.NoError(t, m.Close())
	// the next step would drive the pin high again
	a.fireNext()
	require.Equal(t, gpio.Low, pin.Read())
	require.Empty(t, a.fns)

	m.Trigger(cue.ImpactHeavy)
	require.Equal(t, gpio.Low, pin.Read())
	require.Empty(t, a.fns)
}

func TestMotorErrorIsDoubleBuzz(t *testing.T) {
	m, pin, a := newTestMotor(t)

	m.Trigger(cue.Error)
	levels := []gpio.Level{pin.Read()}
	for len(a.fns) > 0 {
		a.fireNext()
		levels = append(levels, pin.Read())
	}
	require.Equal(t, []gpio.Level{gpio.High, gpio.Low, gpio.High, gpio.Low}, levels)
}

func TestMotorDropsTriggerWhileBusy(t *testing.T) {
	m, _, a := newTestMotor(t)

	m.Trigger(cue.ImpactLight)
	m.Trigger(cue.ImpactHeavy)
	require.Len(t, a.delays, 1)
	require.Equal(t, 40*time.Millisecond, a.delays[0])

	a.fireNext()
	m.Trigger(cue.ImpactHeavy)
	require.Len(t, a.delays, 2)
}

func TestRecorderAndMulti(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r1 := NewRecorder(func() time.Time { return at })
	r2 := NewRecorder(nil)
	sink := Multi{r1, r2, NewLog()}

	sink.Trigger(cue.ImpactHeavy)
	sink.Prepare(cue.ImpactHeavy)
	sink.Trigger(cue.Error)

	require.Equal(t, []cue.Kind{cue.ImpactHeavy, cue.Error}, r1.Kinds())
	require.Equal(t, r1.Kinds(), r2.Kinds())
	require.Equal(t, 1, r1.Count(cue.Error))
	require.Equal(t, []cue.Kind{cue.ImpactHeavy}, r1.Prepared())
	require.Equal(t, at, r1.Requests()[0].Time)

	r1.Reset()
	require.Empty(t, r1.Requests())
}

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type fakePublisher struct {
	mu   sync.Mutex
	msgs map[string][][]byte
}

func (p *fakePublisher) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.msgs == nil {
		p.msgs = map[string][][]byte{}
	}
	p.msgs[topic] = append(p.msgs[topic], payload.([]byte))
	return doneToken{}
}

func TestRemotePublishesRequest(t *testing.T) {
	pub := &fakePublisher{}
	r := NewRemote(pub, "beacon/haptics")
	r.Trigger(cue.ImpactLight)
	r.Prepare(cue.ImpactLight)

	require.Len(t, pub.msgs["beacon/haptics"], 1)
	var req cue.Request
	require.NoError(t, json.Unmarshal(pub.msgs["beacon/haptics"][0], &req))
	require.Equal(t, cue.ImpactLight, req.Kind)
	require.False(t, req.Time.IsZero())
}
