// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"

	"rhythm/internal/log"
)

// LoggingTransport writes every message to the debug log as JSON.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	log.Debug("transport: using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the message. It only fails if the message cannot be encoded.
func (lt *LoggingTransport) Send(msg Message) error {
	if log.GetLevel() > log.LevelDebug {
		return nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	log.Debugf("transport: %s", data)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
