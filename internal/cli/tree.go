package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/svakisto/internal/tree"
	"github.com/mesh-intelligence/svakisto/pkg/types"
)

func newTreeCmd(a *app) *cobra.Command {
	var (
		search string
		sortBy string
		group  string
		all    bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the client tree, optionally filtered",
		Long: `Show clients, objects and stations.

With --search, a station matches by name or AnyDesk id, objects and clients
by name. Ancestors of matches stay visible; only the branches leading to a
matching station are expanded unless --all is given.

Example:
  svakisto tree
  svakisto tree --search reception --sort date
  svakisto tree --group none`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			sortKey, ok := tree.ParseSortKey(sortBy)
			if !ok {
				return usageError{fmt.Errorf("invalid --sort %q (valid: name, date)", sortBy)}
			}
			groupFilter, err := parseGroupFilter(group)
			if err != nil {
				return err
			}

			q := tree.Query{Text: search, Sort: sortKey, Group: groupFilter}
			view, err := a.organizer.Tree(cmd.Context(), q)
			if err != nil {
				return err
			}
			expandAll := all || strings.TrimSpace(search) == ""
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(jsonNodes(view, expandAll))
			}
			if view.Empty() {
				if strings.TrimSpace(search) != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "nothing matches %q\n", search)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "no clients yet; add one with: svakisto client add <name>")
				}
				return nil
			}

			groups, err := a.organizer.ListGroups(cmd.Context())
			if err != nil {
				return err
			}
			renderTree(cmd.OutOrStdout(), view, groups, expandAll)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by name or AnyDesk id")
	cmd.Flags().StringVar(&sortBy, "sort", string(tree.SortName), "sort each level by name or date")
	cmd.Flags().StringVar(&group, "group", "", "show only clients of a group id, or none for ungrouped")
	cmd.Flags().BoolVar(&all, "all", false, "expand every branch")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the filtered view as JSON")
	return cmd
}

// parseGroupFilter maps a --group value to a tree.GroupFilter.
func parseGroupFilter(s string) (tree.GroupFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return tree.GroupAll, nil
	case "none", "ungrouped":
		return tree.GroupUngrouped, nil
	}
	id, err := parseID(s)
	if err != nil {
		return 0, err
	}
	return tree.GroupFilter(id), nil
}

// renderTree writes the visible rows with expand markers and group badges.
func renderTree(w io.Writer, view *tree.View, groups []types.Group, expandAll bool) {
	r := lipgloss.NewRenderer(w)
	var (
		clientStyle  = r.NewStyle().Bold(true)
		objectStyle  = r.NewStyle().Foreground(lipgloss.Color("12"))
		stationStyle = r.NewStyle()
		dimStyle     = r.NewStyle().Foreground(lipgloss.Color("8"))
		matchStyle   = r.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	)

	byID := make(map[int64]types.Group, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	for _, n := range view.Visible(expandAll) {
		indent := strings.Repeat("  ", n.Depth)
		marker := "•"
		if n.Kind != types.KindStation {
			marker = "▸"
			if expandAll || n.Expanded {
				marker = "▾"
			}
		}

		name := n.Name()
		switch n.Kind {
		case types.KindClient:
			name = clientStyle.Render(name)
		case types.KindObject:
			name = objectStyle.Render(name)
		default:
			name = stationStyle.Render(name)
		}
		if view.Matched[n.Ref()] {
			name = matchStyle.Render(n.Name())
		}

		var extra string
		switch n.Kind {
		case types.KindClient:
			if !n.Client.Ungrouped() {
				if g, ok := byID[*n.Client.GroupID]; ok {
					badge := r.NewStyle().Foreground(lipgloss.Color(g.Color))
					if g.Color == "" {
						badge = dimStyle
					}
					extra = " " + badge.Render("["+g.Name+"]")
				}
			}
		case types.KindStation:
			s := n.Station
			extra = fmt.Sprintf("  %s", s.AnydeskID)
			if s.HasPassword() {
				extra += " [pw]"
			}
			extra += dimStyle.Render(fmt.Sprintf("  used %d, last %s", s.UsageCount, formatLastUsed(s.LastUsed)))
		}

		fmt.Fprintf(w, "%s%s %s%s %s\n", indent, marker, name, extra, dimStyle.Render("("+n.Ref().String()+")"))
	}
}

// treeNode is the JSON form of one visible row.
type treeNode struct {
	Ref       string `json:"ref"`
	Depth     int    `json:"depth"`
	Name      string `json:"name"`
	Expanded  bool   `json:"expanded,omitempty"`
	Matched   bool   `json:"matched,omitempty"`
	AnydeskID string `json:"anydeskId,omitempty"`
}

func jsonNodes(view *tree.View, expandAll bool) []treeNode {
	rows := view.Visible(expandAll)
	out := make([]treeNode, 0, len(rows))
	for _, n := range rows {
		tn := treeNode{
			Ref:      n.Ref().String(),
			Depth:    n.Depth,
			Name:     n.Name(),
			Expanded: n.Expanded,
			Matched:  view.Matched[n.Ref()],
		}
		if n.Kind == types.KindStation {
			tn.AnydeskID = n.Station.AnydeskID
		}
		out = append(out, tn)
	}
	return out
}

// usageArgs marks positional argument errors as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}
