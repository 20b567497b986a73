package editor

import (
	"slices"
	"time"
)

type (
	// Alert is a user-visible message. Alerts with the same non-empty Name
	// replace each other instead of piling up.
	Alert struct {
		Name     string
		Priority AlertPriority
		Message  string
		Duration time.Duration
	}

	AlertPriority int

	// Alerts is the view of the model for adding and expiring alerts.
	Alerts Model
)

const (
	Info AlertPriority = iota
	Warning
	Error
)

const defaultAlertDuration = 3 * time.Second

func (p AlertPriority) String() string {
	switch p {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "unknown"
}

func (m *Model) Alerts() *Alerts { return (*Alerts)(m) }

// Add shows an unnamed message for the default duration.
func (m *Alerts) Add(message string, priority AlertPriority) {
	m.AddAlert(Alert{Priority: priority, Message: message, Duration: defaultAlertDuration})
}

// AddNamed shows a message, replacing any alert with the same name.
func (m *Alerts) AddNamed(name, message string, priority AlertPriority) {
	m.AddAlert(Alert{Name: name, Priority: priority, Message: message, Duration: defaultAlertDuration})
}

func (m *Alerts) AddAlert(a Alert) {
	if a.Duration <= 0 {
		a.Duration = defaultAlertDuration
	}
	if a.Name != "" {
		for i := range m.alerts {
			if m.alerts[i].Name == a.Name {
				m.alerts[i] = a
				return
			}
		}
	}
	m.alerts = append(m.alerts, a)
}

// ClearNamed removes the alert with the given name, if any.
func (m *Alerts) ClearNamed(name string) {
	m.alerts = slices.DeleteFunc(m.alerts, func(a Alert) bool { return a.Name == name })
}

// Update ages the alerts by d and drops the expired ones.
func (m *Alerts) Update(d time.Duration) {
	for i := range m.alerts {
		m.alerts[i].Duration -= d
	}
	m.alerts = slices.DeleteFunc(m.alerts, func(a Alert) bool { return a.Duration <= 0 })
}

func (m *Alerts) Len() int { return len(m.alerts) }

// Iterate yields the alerts, oldest first.
func (m *Alerts) Iterate(yield func(int, Alert) bool) {
	for i, a := range m.alerts {
		if !yield(i, a) {
			return
		}
	}
}
