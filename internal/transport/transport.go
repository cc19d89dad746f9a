// SPDX-License-Identifier: MIT
package transport

import (
	"rhythm/internal/beat"
	"rhythm/internal/scoring"
)

// Transport sends messages to something outside the process.
// Implementations must be safe for concurrent use and must not block the
// caller for long: the tick loop calls Send.
type Transport interface {
	Send(msg Message) error
	Close() error
}

// Message kinds.
const (
	KindBeat     = "beat"
	KindSnapshot = "snapshot"
	KindScore    = "score"
)

// Message is the JSON envelope streamed to clients. Exactly one payload is set.
type Message struct {
	Kind     string           `json:"kind"`
	Beat     *beat.Event      `json:"beat,omitempty"`
	Snapshot *beat.Snapshot   `json:"snapshot,omitempty"`
	Score    *scoring.Summary `json:"score,omitempty"`
}

func BeatMessage(e beat.Event) Message {
	return Message{Kind: KindBeat, Beat: &e}
}

func SnapshotMessage(s beat.Snapshot) Message {
	return Message{Kind: KindSnapshot, Snapshot: &s}
}

func ScoreMessage(s scoring.Summary) Message {
	return Message{Kind: KindScore, Score: &s}
}

// Multi fans a message out to several transports. Send returns the first
// error but always tries every transport.
type Multi []Transport

func (m Multi) Send(msg Message) error {
	var first error
	for _, t := range m {
		if err := t.Send(msg); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m Multi) Close() error {
	var first error
	for _, t := range m {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var _ Transport = Multi(nil)
