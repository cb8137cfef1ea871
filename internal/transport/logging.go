// SPDX-License-Identifier: MIT
package transport

import (
	"audiodemo/internal/event"
	applog "audiodemo/internal/log"
)

// LoggingTransport implements the Transport interface by logging LED events.
type LoggingTransport struct {
	log *applog.Logger
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	lt := &LoggingTransport{log: applog.With("led")}
	lt.log.Debugf("Using LoggingTransport")
	return lt
}

// Send logs the event at info level.
func (lt *LoggingTransport) Send(ev event.Event) error {
	lt.log.Infof("%s", ev)
	return nil // Logging transport never fails to "send"
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	lt.log.Debugf("Close called.")
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
