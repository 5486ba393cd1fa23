package types

import "time"

// ClientObject is the mid level of the hierarchy (a room or a sub-site).
// ClientID must reference a live Client.
type ClientObject struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"clientId" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	CreatedAt time.Time `json:"createdAt"`
}
