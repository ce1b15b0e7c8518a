package monitor

import "time"

// ComponentStatus is the last probe result for one dependency.
type ComponentStatus struct {
	Up    bool   `json:"up"`
	Error string `json:"error,omitempty"`
}

type Status struct {
	Healthy    bool                       `json:"healthy"`
	Components map[string]ComponentStatus `json:"components"`
	LastCheck  time.Time                  `json:"last_check"`
}
