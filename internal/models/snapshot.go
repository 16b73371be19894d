package models

import "time"

// Snapshot is the state published for consumers: a timestamp as the state value
// plus an attribute bag carrying the channel mapping.
type Snapshot struct {
	EntityID   string     `json:"entity_id"`
	State      string     `json:"state"`
	Attributes Attributes `json:"attributes"`
	RunID      string     `json:"run_id,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Attributes is the attribute bag attached to a Snapshot.
type Attributes struct {
	FriendlyName string   `json:"friendly_name"`
	Icon         string   `json:"icon"`
	Channels     Channels `json:"channels"`
}
