// Package notification delivers detected signals to the operator. Delivery
// is best effort: failures are logged by the caller and never abort a scan
// cycle.
package notification

import (
	"time"
)

// Signal is the payload sent to the operator when a detector fires.
type Signal struct {
	Symbol    string
	Detector  string
	Reason    string
	Metadata  map[string]float64
	ActionURL string // webhook link that triggers the buy, may be empty
	Timestamp time.Time
}

// Notifier is a single notification provider.
type Notifier interface {
	Send(signal *Signal) error
	Name() string
	IsEnabled() bool
}

// Manager fans a signal out to all enabled providers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates an empty notification manager.
func NewManager() *Manager {
	return &Manager{notifiers: make([]Notifier, 0)}
}

// AddNotifier registers a notification provider.
func (m *Manager) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Send delivers the signal to every enabled provider. The last provider
// error is returned so the caller can log it; partial delivery is fine.
func (m *Manager) Send(signal *Signal) error {
	var lastErr error
	for _, n := range m.notifiers {
		if !n.IsEnabled() {
			continue
		}
		if err := n.Send(signal); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
