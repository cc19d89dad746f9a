// SPDX-License-Identifier: MIT
package transport

import (
	"context"
	"time"

	"rhythm/internal/beat"
	"rhythm/internal/log"
)

// StreamSnapshots sends the latest snapshot to t every interval until ctx is
// done. Unchanged snapshots are not resent.
func StreamSnapshots(ctx context.Context, t Transport, store *beat.SnapshotStore, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	warn := log.NewThrottle(5 * time.Second)
	start := time.Now()
	var last uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, ok := store.Load()
			if !ok || snap.Seq == last {
				continue
			}
			last = snap.Seq
			if err := t.Send(SnapshotMessage(snap)); err != nil {
				log.WarnEvery(warn, time.Since(start), "transport: dropping snapshot: %v", err)
			}
		}
	}
}
