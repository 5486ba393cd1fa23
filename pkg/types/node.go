package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the three tree levels.
type Kind string

// Tree levels.
const (
	KindClient  Kind = "client"
	KindObject  Kind = "object"
	KindStation Kind = "station"
)

// validKinds is the set of recognized kinds.
var validKinds = map[Kind]bool{
	KindClient:  true,
	KindObject:  true,
	KindStation: true,
}

// ParseKind converts a string to a Kind. Returns ErrInvalidKind for anything
// other than client, object or station.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !validKinds[k] {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// ParentKind returns the kind a node of this kind is attached to. Clients
// have no parent and return the empty kind.
func (k Kind) ParentKind() Kind {
	switch k {
	case KindObject:
		return KindClient
	case KindStation:
		return KindObject
	default:
		return ""
	}
}

// ItemRef is a {type, id} pair naming one node of the tree. Bulk operations
// take slices of ItemRef.
type ItemRef struct {
	Kind Kind  `json:"type"`
	ID   int64 `json:"id"`
}

// String formats the ref as kind:id.
func (r ItemRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// ParseItemRef parses "kind:id". The "kind-id" form used by older selection
// keys is accepted as well.
func ParseItemRef(s string) (ItemRef, error) {
	sep := strings.IndexAny(s, ":-")
	if sep <= 0 || sep == len(s)-1 {
		return ItemRef{}, fmt.Errorf("%w: %q (expected kind:id)", ErrInvalidKind, s)
	}
	kind, err := ParseKind(s[:sep])
	if err != nil {
		return ItemRef{}, err
	}
	id, err := strconv.ParseInt(s[sep+1:], 10, 64)
	if err != nil || id <= 0 {
		return ItemRef{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ItemRef{Kind: kind, ID: id}, nil
}

// Node is one row of the rendered tree. Exactly one of Client, Object or
// Station is set, matching Kind.
type Node struct {
	Kind     Kind
	Depth    int
	Expanded bool
	Client   *Client
	Object   *ClientObject
	Station  *Station
}

// ID returns the id of the wrapped entity.
func (n Node) ID() int64 {
	switch n.Kind {
	case KindClient:
		return n.Client.ID
	case KindObject:
		return n.Object.ID
	case KindStation:
		return n.Station.ID
	}
	return 0
}

// Name returns the display name of the wrapped entity.
func (n Node) Name() string {
	switch n.Kind {
	case KindClient:
		return n.Client.Name
	case KindObject:
		return n.Object.Name
	case KindStation:
		return n.Station.Name
	}
	return ""
}

// Ref returns the ItemRef naming this node.
func (n Node) Ref() ItemRef {
	return ItemRef{Kind: n.Kind, ID: n.ID()}
}
