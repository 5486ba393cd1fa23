package tree

import "github.com/mesh-intelligence/svakisto/pkg/types"

// Nodes flattens the view depth-first into tagged rows: each Client is
// followed by its Objects, each Object by its Stations, in view order.
// Rows under collapsed parents are included; callers decide whether to show
// them.
func (v *View) Nodes() []types.Node {
	objectsByClient := map[int64][]int{}
	for i := range v.Objects {
		objectsByClient[v.Objects[i].ClientID] = append(objectsByClient[v.Objects[i].ClientID], i)
	}
	stationsByObject := map[int64][]int{}
	for i := range v.Stations {
		stationsByObject[v.Stations[i].ObjectID] = append(stationsByObject[v.Stations[i].ObjectID], i)
	}

	nodes := make([]types.Node, 0, len(v.Clients)+len(v.Objects)+len(v.Stations))
	for ci := range v.Clients {
		c := &v.Clients[ci]
		nodes = append(nodes, types.Node{
			Kind:     types.KindClient,
			Depth:    0,
			Expanded: v.ExpandedClients[c.ID],
			Client:   c,
		})
		for _, oi := range objectsByClient[c.ID] {
			o := &v.Objects[oi]
			nodes = append(nodes, types.Node{
				Kind:     types.KindObject,
				Depth:    1,
				Expanded: v.ExpandedObjects[o.ID],
				Object:   o,
			})
			for _, si := range stationsByObject[o.ID] {
				nodes = append(nodes, types.Node{
					Kind:    types.KindStation,
					Depth:   2,
					Station: &v.Stations[si],
				})
			}
		}
	}
	return nodes
}

// Visible returns the rows a tree widget would show: children of collapsed
// parents are skipped. When expandAll is set every row is returned.
func (v *View) Visible(expandAll bool) []types.Node {
	all := v.Nodes()
	if expandAll {
		return all
	}
	out := make([]types.Node, 0, len(all))
	hideBelow := -1
	for _, n := range all {
		if hideBelow >= 0 && n.Depth > hideBelow {
			continue
		}
		hideBelow = -1
		out = append(out, n)
		if n.Kind != types.KindStation && !n.Expanded {
			hideBelow = n.Depth
		}
	}
	return out
}
