// Package tree computes the visible, sorted and auto-expanded view of the
// Client, Object and Station hierarchy.
//
// Filtering is a pure function of a types.Snapshot. Nothing here touches the
// store, so the same snapshot can be filtered repeatedly as the query changes.
package tree

import (
	"cmp"
	"slices"
	"strings"

	"github.com/mesh-intelligence/svakisto/pkg/types"
)

// SortKey selects the ordering applied to each level.
type SortKey string

// Sort keys.
const (
	SortName SortKey = "name"
	SortDate SortKey = "date"
)

// ParseSortKey maps a user string to a SortKey. Empty means SortName.
func ParseSortKey(s string) (SortKey, bool) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortName:
		return SortName, true
	case SortDate:
		return SortDate, true
	}
	return "", false
}

// GroupFilter restricts the visible Clients. GroupAll disables the filter,
// GroupUngrouped keeps Clients without a group, and any positive value keeps
// the Clients tagged with that group id.
type GroupFilter int64

// Group filter sentinels.
const (
	GroupAll       GroupFilter = 0
	GroupUngrouped GroupFilter = -1
)

func (g GroupFilter) keep(c *types.Client) bool {
	switch {
	case g == GroupAll:
		return true
	case g == GroupUngrouped:
		return c.Ungrouped()
	default:
		return c.InGroup(int64(g))
	}
}

// Query is the input of Filter.
type Query struct {
	Text  string
	Sort  SortKey
	Group GroupFilter
}

// View is the result of Filter. Each level is sorted independently.
// ExpandedClients and ExpandedObjects hold the ids that should render
// expanded; Matched holds the nodes that matched the query directly.
type View struct {
	Clients  []types.Client
	Objects  []types.ClientObject
	Stations []types.Station

	ExpandedClients map[int64]bool
	ExpandedObjects map[int64]bool
	Matched         map[types.ItemRef]bool
}

// Empty reports whether nothing is visible.
func (v *View) Empty() bool {
	return len(v.Clients) == 0 && len(v.Objects) == 0 && len(v.Stations) == 0
}

// Filter applies the group filter, the text query and the sort key to snap.
//
// With an empty query every level is returned sorted and nothing is
// expanded. With a query, a Station matches when its name contains the query
// case-insensitively or its AnydeskID contains the query as typed. Objects
// and Clients match by name. Ancestors of a match stay visible, and so do the
// descendants of a name-matched Object or Client.
//
// Expansion is decided separately from visibility: an Object expands only
// when it owns a directly matching Station, and a Client expands only when
// one of its Objects is expanded or matches by name. A node matched only by
// its own name stays collapsed.
func Filter(snap *types.Snapshot, q Query) *View {
	v := &View{
		ExpandedClients: map[int64]bool{},
		ExpandedObjects: map[int64]bool{},
		Matched:         map[types.ItemRef]bool{},
	}
	if snap == nil {
		return v
	}

	clientOK := map[int64]bool{}
	var clients []types.Client
	for _, c := range snap.Clients {
		if q.Group.keep(&c) {
			clientOK[c.ID] = true
			clients = append(clients, c)
		}
	}
	objectOK := map[int64]bool{}
	var objects []types.ClientObject
	for _, o := range snap.Objects {
		if clientOK[o.ClientID] {
			objectOK[o.ID] = true
			objects = append(objects, o)
		}
	}
	var stations []types.Station
	for _, s := range snap.Stations {
		if objectOK[s.ObjectID] {
			stations = append(stations, s)
		}
	}

	raw := strings.TrimSpace(q.Text)
	if raw == "" {
		v.Clients, v.Objects, v.Stations = clients, objects, stations
		v.sort(q.Sort)
		return v
	}
	needle := strings.ToLower(raw)

	clientMatch := map[int64]bool{}
	for _, c := range clients {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			clientMatch[c.ID] = true
			v.Matched[types.ItemRef{Kind: types.KindClient, ID: c.ID}] = true
		}
	}
	objectMatch := map[int64]bool{}
	objectClient := map[int64]int64{}
	for _, o := range objects {
		objectClient[o.ID] = o.ClientID
		if strings.Contains(strings.ToLower(o.Name), needle) {
			objectMatch[o.ID] = true
			v.Matched[types.ItemRef{Kind: types.KindObject, ID: o.ID}] = true
		}
	}

	objectVisible := map[int64]bool{}
	for _, s := range stations {
		direct := strings.Contains(strings.ToLower(s.Name), needle) ||
			strings.Contains(s.AnydeskID, raw)
		inherited := objectMatch[s.ObjectID] || clientMatch[objectClient[s.ObjectID]]
		if !direct && !inherited {
			continue
		}
		v.Stations = append(v.Stations, s)
		if direct {
			v.Matched[types.ItemRef{Kind: types.KindStation, ID: s.ID}] = true
			v.ExpandedObjects[s.ObjectID] = true
			objectVisible[s.ObjectID] = true
		}
	}

	clientVisible := map[int64]bool{}
	for _, o := range objects {
		if objectMatch[o.ID] || objectVisible[o.ID] || clientMatch[o.ClientID] {
			v.Objects = append(v.Objects, o)
			clientVisible[o.ClientID] = clientVisible[o.ClientID] || objectMatch[o.ID] || objectVisible[o.ID]
			if v.ExpandedObjects[o.ID] || objectMatch[o.ID] {
				v.ExpandedClients[o.ClientID] = true
			}
		}
	}
	for _, c := range clients {
		if clientMatch[c.ID] || clientVisible[c.ID] {
			v.Clients = append(v.Clients, c)
		}
	}

	v.sort(q.Sort)
	return v
}

func (v *View) sort(key SortKey) {
	if key == SortDate {
		slices.SortStableFunc(v.Clients, func(a, b types.Client) int {
			return byDate(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano(), a.ID, b.ID)
		})
		slices.SortStableFunc(v.Objects, func(a, b types.ClientObject) int {
			return byDate(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano(), a.ID, b.ID)
		})
		slices.SortStableFunc(v.Stations, func(a, b types.Station) int {
			return byDate(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano(), a.ID, b.ID)
		})
		return
	}
	slices.SortStableFunc(v.Clients, func(a, b types.Client) int {
		return byName(a.Name, b.Name, a.ID, b.ID)
	})
	slices.SortStableFunc(v.Objects, func(a, b types.ClientObject) int {
		return byName(a.Name, b.Name, a.ID, b.ID)
	})
	slices.SortStableFunc(v.Stations, func(a, b types.Station) int {
		return byName(a.Name, b.Name, a.ID, b.ID)
	})
}

// byName orders case-insensitively, then by id.
func byName(a, b string, aID, bID int64) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return cmp.Compare(aID, bID)
}

// byDate orders newest first, then by id.
func byDate(a, b int64, aID, bID int64) int {
	if c := cmp.Compare(b, a); c != 0 {
		return c
	}
	return cmp.Compare(aID, bID)
}
