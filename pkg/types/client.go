package types

import "time"

// Client is the top level of the hierarchy (a customer or a site).
type Client struct {
	ID        int64     `json:"id"`
	GroupID   *int64    `json:"groupId,omitempty"`
	Name      string    `json:"name" validate:"required"`
	CreatedAt time.Time `json:"createdAt"`
}

// InGroup reports whether the client is tagged with the given group.
func (c *Client) InGroup(groupID int64) bool {
	return c.GroupID != nil && *c.GroupID == groupID
}

// Ungrouped reports whether the client carries no group tag.
// A zero group id counts as ungrouped.
func (c *Client) Ungrouped() bool {
	return c.GroupID == nil || *c.GroupID == 0
}
