package bitypes

import "time"

const (
	ControlTowerSource     = "aws.controltower"
	ControlTowerDetailType = "AWS Service Event via CloudTrail"
)

type EventBridgeEvent[Detail any] struct {
	Version    string    `json:"version"`
	Id         string    `json:"id"`
	DetailType string    `json:"detail-type"`
	Source     string    `json:"source"`
	Account    string    `json:"account"`
	Time       time.Time `json:"time"`
	Region     string    `json:"region"`
	Resources  []string  `json:"resources"`
	Detail     Detail    `json:"detail"`
}

// IsControlTowerLifecycle reports whether the event was matched from the
// Control Tower lifecycle event pattern.
func (e *EventBridgeEvent[Detail]) IsControlTowerLifecycle() bool {
	return e.Source == ControlTowerSource && e.DetailType == ControlTowerDetailType
}
