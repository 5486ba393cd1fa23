package tree

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/svakisto/pkg/types"
)

// UnknownClient is the subtitle of an Object destination whose Client is
// missing.
const UnknownClient = "Unknown Client"

// Destination is one candidate parent for a move.
type Destination struct {
	Ref      types.ItemRef
	Name     string
	Subtitle string
}

// Destinations lists the parents a node of kind moving can be moved into,
// filtered by a case-insensitive substring of text. Objects move into
// Clients; Stations move into Objects and carry the Client name as subtitle.
// Clients cannot be moved.
func Destinations(snap *types.Snapshot, moving types.Kind, text string) ([]Destination, error) {
	needle := strings.ToLower(strings.TrimSpace(text))
	var out []Destination

	switch moving {
	case types.KindObject:
		for _, c := range snap.Clients {
			if strings.Contains(strings.ToLower(c.Name), needle) {
				out = append(out, Destination{
					Ref:  types.ItemRef{Kind: types.KindClient, ID: c.ID},
					Name: c.Name,
				})
			}
		}
	case types.KindStation:
		clientNames := make(map[int64]string, len(snap.Clients))
		for _, c := range snap.Clients {
			clientNames[c.ID] = c.Name
		}
		for _, o := range snap.Objects {
			if !strings.Contains(strings.ToLower(o.Name), needle) {
				continue
			}
			subtitle, ok := clientNames[o.ClientID]
			if !ok {
				subtitle = UnknownClient
			}
			out = append(out, Destination{
				Ref:      types.ItemRef{Kind: types.KindObject, ID: o.ID},
				Name:     o.Name,
				Subtitle: subtitle,
			})
		}
	default:
		return nil, fmt.Errorf("%w: %s nodes have no parent", types.ErrInvalidMove, moving)
	}

	slices.SortStableFunc(out, func(a, b Destination) int {
		return byName(a.Name, b.Name, a.Ref.ID, b.Ref.ID)
	})
	return out, nil
}
