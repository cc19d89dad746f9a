// SPDX-License-Identifier: MIT
package beat

import (
	"fmt"
	"strings"
	"sync"
)

// BandState is the diagnostic view of one band at a tick.
type BandState struct {
	Band       BandID  `json:"band"`
	Name       string  `json:"name"`
	Energy     float64 `json:"energy"`
	Threshold  float64 `json:"threshold"`
	Average    float64 `json:"average"`
	HistoryLen int     `json:"history"`
	Armed      bool    `json:"armed"`

	// SinceLastBeat is negative until the band has fired once.
	SinceLastBeat float64 `json:"since_last_beat"`
}

// Snapshot captures every band after a tick. It is observability data only.
type Snapshot struct {
	Seq   uint64      `json:"seq"`
	Time  float64     `json:"time"`
	Bands []BandState `json:"bands"`
}

func (s Snapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "t=%.2fs", s.Time)
	for _, bs := range s.Bands {
		since := "never"
		if bs.SinceLastBeat >= 0 {
			since = fmt.Sprintf("%.2fs", bs.SinceLastBeat)
		}
		fmt.Fprintf(&b, " | %s e=%.6f thr=%.6f avg=%.6f last=%s hist=%d",
			bs.Name, bs.Energy, bs.Threshold, bs.Average, since, bs.HistoryLen)
	}
	return b.String()
}

// SnapshotStore holds the latest Snapshot for readers on other goroutines
// (dashboard, transports). The tick loop writes without allocating once the
// band count is stable.
type SnapshotStore struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewSnapshotStore returns an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Store copies s into the store.
func (st *SnapshotStore) Store(s Snapshot) {
	st.mu.Lock()
	st.snap.Seq = s.Seq
	st.snap.Time = s.Time
	st.snap.Bands = append(st.snap.Bands[:0], s.Bands...)
	st.mu.Unlock()
}

// Load returns a copy of the latest snapshot. ok is false before the first Store.
func (st *SnapshotStore) Load() (Snapshot, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.snap.Seq == 0 {
		return Snapshot{}, false
	}
	out := st.snap
	out.Bands = append([]BandState(nil), st.snap.Bands...)
	return out, true
}
