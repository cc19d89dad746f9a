// SPDX-License-Identifier: MIT
package udp

import (
	"fmt"
	"sync"
	"time"

	"rhythm/internal/beat"
	"rhythm/internal/log"
)

// Sender is the packet sink. UDPSender implements it.
type Sender interface {
	Send(data []byte) error
}

// UDPPublisher periodically reads the latest detector snapshot, packs it into
// the binary snapshot format and sends it. It runs in its own goroutine
// managed by Start and Stop, and never touches the tick loop directly.
type UDPPublisher struct {
	sender   Sender
	store    *beat.SnapshotStore
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	sequenceNum uint32
	lastSeq     uint64 // Snapshot sequence last sent; unchanged snapshots are skipped.
	packet      []byte // Reused between sends.
	warn        *log.Throttle
	started     time.Time
}

// NewUDPPublisher creates a publisher. A non-positive interval defaults to
// 33ms (~30Hz).
func NewUDPPublisher(interval time.Duration, sender Sender, store *beat.SnapshotStore) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("UDPPublisher: snapshot store cannot be nil")
	}

	if interval <= 0 {
		interval = 33 * time.Millisecond
		log.Warnf("udp: invalid interval, defaulting to %s", interval)
	}

	return &UDPPublisher{
		sender:   sender,
		store:    store,
		interval: interval,
		packet:   make([]byte, 0, HeaderSize+8*BandSize),
		warn:     log.NewThrottle(5 * time.Second),
	}, nil
}

// Start begins the periodic publishing process.
// It is safe to call Start multiple times; subsequent calls are no-ops if already started.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		log.Warn("udp: Start called but already running")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	p.started = time.Now()

	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		log.Debugf("udp: publisher started (interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it to exit.
// It is safe to call Stop multiple times.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})

	p.mu.Unlock()

	p.wg.Wait()
	log.Debug("udp: publisher stopped")
	return nil
}

// publish sends the latest snapshot if it changed since the last send.
// It reports whether a packet was sent.
func (p *UDPPublisher) publish() bool {
	snap, ok := p.store.Load()
	if !ok || snap.Seq == p.lastSeq {
		return false
	}
	p.lastSeq = snap.Seq
	p.sequenceNum++

	p.packet = AppendSnapshot(p.packet[:0], p.sequenceNum, time.Now().UnixNano(), snap)
	if err := p.sender.Send(p.packet); err != nil {
		log.WarnEvery(p.warn, time.Since(p.started), "udp: %v", err)
		return false
	}
	return true
}

// Close stops the publisher.
func (p *UDPPublisher) Close() error {
	return p.Stop()
}

var _ interface{ Close() error } = (*UDPPublisher)(nil)
