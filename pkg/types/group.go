package types

// Group is an optional tag applied to Clients for top-level filtering.
// Deleting a Group never cascades; referencing Clients only lose their GroupID.
type Group struct {
	ID    int64  `json:"id"`
	Name  string `json:"name" validate:"required"`
	Color string `json:"color,omitempty"`
}
