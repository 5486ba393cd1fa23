package types

import "time"

// Station is the leaf of the hierarchy: one remote-desktop target.
// AnydeskID is a free-text connection identifier. Password is kept in
// cleartext in the store and only protected at the export boundary.
type Station struct {
	ID         int64      `json:"id"`
	ObjectID   int64      `json:"objectId" validate:"required"`
	Name       string     `json:"name" validate:"required"`
	AnydeskID  string     `json:"anydeskId" validate:"required"`
	Password   string     `json:"password,omitempty"`
	LastUsed   *time.Time `json:"lastUsed,omitempty"`
	UsageCount int64      `json:"usageCount"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// HasPassword reports whether a password is stored for the station.
func (s *Station) HasPassword() bool {
	return s.Password != ""
}
