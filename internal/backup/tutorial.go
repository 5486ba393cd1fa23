package backup

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/svakisto/pkg/types"
)

// TutorialExportedBy marks the built-in tutorial dataset.
const TutorialExportedBy = "Tutorial Mode"

// TutorialDocument returns the "messy office" dataset: every client sits in
// the Unsorted group and Artist Mac is filed under the wrong object.
func TutorialDocument() *Document {
	g := func(id int64) *int64 { return &id }
	return &Document{
		Meta: Meta{Version: "tutorial", ExportedBy: TutorialExportedBy},
		Groups: []types.Group{
			{ID: 1, Name: "Unsorted"},
			{ID: 2, Name: "IT Dept"},
			{ID: 3, Name: "Marketing"},
		},
		Clients: []types.Client{
			{ID: 1, Name: "Server Room", GroupID: g(1)},
			{ID: 2, Name: "Design Studio", GroupID: g(1)},
			{ID: 3, Name: "Messy Desk", GroupID: g(1)},
		},
		Objects: []types.ClientObject{
			{ID: 1, ClientID: 1, Name: "Rack A"},
			{ID: 2, ClientID: 2, Name: "Design PC 1"},
			{ID: 3, ClientID: 1, Name: "Stray Printer"},
		},
		Stations: []types.Station{
			{ID: 1, ObjectID: 1, Name: "Main Server", AnydeskID: "111-222-333", Password: "secure"},
			{ID: 2, ObjectID: 1, Name: "Artist Mac", AnydeskID: "999-888-777", Password: "art"},
			{ID: 3, ObjectID: 2, Name: "Reception PC", AnydeskID: "555-444-333", Password: "hello"},
		},
	}
}

// LoadTutorial captures a tutorial-auto-backup of the current data and
// replaces it with the tutorial dataset.
func (s *Service) LoadTutorial(ctx context.Context) error {
	doc := TutorialDocument()
	doc.Meta.Date = s.now().UTC()
	return s.replace(ctx, doc, types.ReasonTutorial)
}

// CheckTutorial returns the tutorial goals that are not met yet. An empty
// result means the puzzle is solved.
func (s *Service) CheckTutorial(ctx context.Context) ([]string, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}

	clientByName := map[string]types.Client{}
	for _, c := range doc.Clients {
		if _, seen := clientByName[c.Name]; !seen {
			clientByName[c.Name] = c
		}
	}
	groupByName := map[string]types.Group{}
	for _, g := range doc.Groups {
		if _, seen := groupByName[g.Name]; !seen {
			groupByName[g.Name] = g
		}
	}
	objectByName := map[string]types.ClientObject{}
	for _, o := range doc.Objects {
		if _, seen := objectByName[o.Name]; !seen {
			objectByName[o.Name] = o
		}
	}

	var unmet []string
	for _, goal := range []struct{ client, group string }{
		{"Server Room", "IT Dept"},
		{"Design Studio", "Marketing"},
	} {
		c, okC := clientByName[goal.client]
		g, okG := groupByName[goal.group]
		if !okC || !okG || !c.InGroup(g.ID) {
			unmet = append(unmet, fmt.Sprintf("Client '%s' should be in Group '%s'.", goal.client, goal.group))
		}
	}

	var artist *types.Station
	for i := range doc.Stations {
		if doc.Stations[i].Name == "Artist Mac" {
			artist = &doc.Stations[i]
			break
		}
	}
	pc, okPC := objectByName["Design PC 1"]
	if artist == nil || !okPC || artist.ObjectID != pc.ID {
		unmet = append(unmet, "Station 'Artist Mac' should be inside Object 'Design PC 1'.")
	}
	return unmet, nil
}
