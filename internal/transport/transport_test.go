// SPDX-License-Identifier: MIT
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rhythm/internal/beat"
	"rhythm/internal/events"
	"rhythm/internal/scoring"
)

// recorder is a Transport that keeps what it was sent.
type recorder struct {
	mu     sync.Mutex
	msgs   []Message
	err    error
	closed bool
}

func (r *recorder) Send(m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
	return r.err
}

func (r *recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return r.err
}

func (r *recorder) messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

func TestMessageJSON(t *testing.T) {
	data, err := json.Marshal(BeatMessage(beat.Event{Band: beat.Mid, Intensity: 42, Energy: 0.5, Time: 1.25}))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, KindBeat, got["kind"])
	assert.NotContains(t, got, "snapshot")
	assert.Contains(t, got, "beat")

	data, err = json.Marshal(ScoreMessage(scoring.Summary{Perfect: 1, Total: 1, Accuracy: 1}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"score"`)
}

func TestMultiTriesEveryTransport(t *testing.T) {
	failing := &recorder{err: errors.New("down")}
	ok := &recorder{}
	m := Multi{failing, ok}

	assert.Error(t, m.Send(BeatMessage(beat.Event{})))
	assert.Len(t, ok.messages(), 1, "a failing transport does not starve the rest")

	assert.Error(t, m.Close())
	assert.True(t, ok.closed)
}

func TestEventForwarder(t *testing.T) {
	rec := &recorder{}
	bus := events.NewBus()
	bus.Subscribe(NewEventForwarder(rec))

	bus.Publish(beat.Event{Band: beat.Low, Intensity: 80})
	bus.Publish(beat.Event{Band: beat.High, Intensity: 30})

	msgs := rec.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, beat.Low, msgs[0].Beat.Band)
	assert.Equal(t, beat.High, msgs[1].Beat.Band)

	// Errors stay inside the forwarder.
	rec.err = errors.New("full")
	assert.NotPanics(t, func() { bus.Publish(beat.Event{}) })
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport()
	assert.NoError(t, lt.Send(SnapshotMessage(beat.Snapshot{Seq: 1})))
	assert.NoError(t, lt.Close())
}

func TestStreamSnapshotsSkipsUnchanged(t *testing.T) {
	store := beat.NewSnapshotStore()
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StreamSnapshots(ctx, rec, store, 5*time.Millisecond)
		close(done)
	}()

	store.Store(beat.Snapshot{Seq: 1, Time: 0.5})
	require.Eventually(t, func() bool { return len(rec.messages()) == 1 }, time.Second, time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	assert.Len(t, rec.messages(), 1, "same snapshot is not resent")

	store.Store(beat.Snapshot{Seq: 2, Time: 0.6})
	require.Eventually(t, func() bool { return len(rec.messages()) == 2 }, time.Second, time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, uint64(2), rec.messages()[1].Snapshot.Seq)
}
