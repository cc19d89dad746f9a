// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rhythm/internal/beat"
)

func testSnapshot(seq uint64) beat.Snapshot {
	return beat.Snapshot{
		Seq:  seq,
		Time: 1.5,
		Bands: []beat.BandState{
			{Band: beat.Low, Energy: 0.5, Threshold: 0.25, Average: 0.125, SinceLastBeat: 0.75},
			{Band: beat.Mid, Energy: 2, Threshold: 1, Average: 0.5, SinceLastBeat: -1},
		},
	}
}

func TestPacketLayout(t *testing.T) {
	data := AppendSnapshot(nil, 7, 123456789, testSnapshot(1))
	require.Len(t, data, HeaderSize+2*BandSize)
	assert.Equal(t, []byte{0, 0, 0, 7}, data[:4], "sequence is big endian")

	p, err := DecodePacket(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), p.Seq)
	assert.Equal(t, int64(123456789), p.Timestamp)
	require.Len(t, p.Bands, 2)
	assert.Equal(t, BandRecord{ID: 0, Energy: 0.5, Threshold: 0.25, Average: 0.125, SinceLastBeat: 0.75}, p.Bands[0])
	assert.Equal(t, uint8(1), p.Bands[1].ID)
	assert.Equal(t, float32(-1), p.Bands[1].SinceLastBeat, "never fired")
}

func TestDecodeShortPacket(t *testing.T) {
	_, err := DecodePacket([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrShortPacket)

	data := AppendSnapshot(nil, 1, 0, testSnapshot(1))
	_, err = DecodePacket(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrShortPacket)
}

type captureSender struct {
	packets [][]byte
	err     error
}

func (c *captureSender) Send(data []byte) error {
	c.packets = append(c.packets, append([]byte(nil), data...))
	return c.err
}

func TestPublisherSendsChangedSnapshots(t *testing.T) {
	store := beat.NewSnapshotStore()
	sender := &captureSender{}
	p, err := NewUDPPublisher(time.Millisecond, sender, store)
	require.NoError(t, err)

	assert.False(t, p.publish(), "nothing stored yet")

	store.Store(testSnapshot(1))
	assert.True(t, p.publish())
	assert.False(t, p.publish(), "unchanged snapshot")

	store.Store(testSnapshot(2))
	assert.True(t, p.publish())

	require.Len(t, sender.packets, 2)
	second, err := DecodePacket(sender.packets[1])
	require.NoError(t, err)
	assert.Equal(t, uint32(2), second.Seq)

	sender.err = errors.New("unreachable")
	store.Store(testSnapshot(3))
	assert.False(t, p.publish())
}

func TestPublisherRequiresCollaborators(t *testing.T) {
	_, err := NewUDPPublisher(time.Second, nil, beat.NewSnapshotStore())
	assert.Error(t, err)
	_, err = NewUDPPublisher(time.Second, &captureSender{}, nil)
	assert.Error(t, err)

	p, err := NewUDPPublisher(0, &captureSender{}, beat.NewSnapshotStore())
	require.NoError(t, err)
	assert.Equal(t, 33*time.Millisecond, p.interval)
}

func TestPublisherStartStop(t *testing.T) {
	store := beat.NewSnapshotStore()
	store.Store(testSnapshot(1))
	p, err := NewUDPPublisher(time.Millisecond, &captureSender{}, store)
	require.NoError(t, err)

	p.Start()
	p.Start() // No-op while running.
	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())
	require.NoError(t, p.Close())
}

func TestUDPSenderRoundTrip(t *testing.T) {
	ln, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer ln.Close()

	s, err := NewUDPSender(ln.LocalAddr().String())
	require.NoError(t, err)

	payload := AppendSnapshot(nil, 9, 42, testSnapshot(1))
	require.NoError(t, s.Send(payload))

	buf := make([]byte, 1500)
	require.NoError(t, ln.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := ln.ReadFromUDP(buf)
	require.NoError(t, err)

	p, err := DecodePacket(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, uint32(9), p.Seq)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Error(t, s.Send(payload))
}
