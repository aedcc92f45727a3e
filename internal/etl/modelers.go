package etl

import (
	"strconv"
	"strings"

	"github.com/landfiredata/bps-explorer/internal/datastore"
	"github.com/landfiredata/bps-explorer/internal/errors"
)

// modelerRow is one raw assignment line from the modelers export: a model id
// plus whatever identity and reviewer fields were filled in.
type modelerRow struct {
	BpsModelID    string
	Name          string
	Email         string
	Reviewers     string
	ReviewerEmail string
}

// splitModelers deduplicates modeler identities and rebuilds the assignment
// rows against the assigned ids. The source export repeats one row per
// (model, modeler) pair with free-form identity fields, so identities
// collapse in three passes:
//
//  1. rows with a name but no email deduplicate by name,
//  2. rows with neither name nor email keep one identity per assignment,
//  3. rows with an email deduplicate by email, since the same person signs
//     with differently spelled names.
//
// Ids are assigned sequentially across the passes in that order. The set of
// distinct model ids must survive the split unchanged.
func splitModelers(rows []modelerRow) ([]datastore.Modeler, []datastore.ModelAssignment, error) {
	// Identity fields are compared case-insensitively; lowercase once.
	cleaned := make([]modelerRow, 0, len(rows))
	modelsBefore := make(map[string]struct{})
	for _, r := range rows {
		r.Name = strings.ToLower(strings.TrimSpace(r.Name))
		r.Email = strings.ToLower(strings.TrimSpace(r.Email))
		r.Reviewers = strings.ToLower(strings.TrimSpace(r.Reviewers))
		r.ReviewerEmail = strings.ToLower(strings.TrimSpace(r.ReviewerEmail))
		if r.Name == "" && r.Email == "" && r.Reviewers == "" && r.ReviewerEmail == "" {
			continue
		}
		cleaned = append(cleaned, r)
		modelsBefore[r.BpsModelID] = struct{}{}
	}

	var modelers []datastore.Modeler
	nextID := 0

	// Pass 1: named modelers without an email, one identity per name.
	byName := make(map[string]int)
	for _, r := range cleaned {
		if r.Email != "" || r.Name == "" {
			continue
		}
		if _, seen := byName[r.Name]; seen {
			continue
		}
		byName[r.Name] = nextID
		modelers = append(modelers, datastore.Modeler{ModelerID: nextID, Name: r.Name})
		nextID++
	}

	// Pass 2: rows with reviewer info only keep a blank identity each, so
	// the assignment survives.
	noInfoIDs := make(map[int]int) // cleaned-row index -> modeler id
	for i, r := range cleaned {
		if r.Name != "" || r.Email != "" {
			continue
		}
		noInfoIDs[i] = nextID
		modelers = append(modelers, datastore.Modeler{ModelerID: nextID})
		nextID++
	}

	// Pass 3: emailed modelers deduplicate by email, keeping the first
	// spelling of the name.
	byEmail := make(map[string]int)
	for _, r := range cleaned {
		if r.Email == "" {
			continue
		}
		if _, seen := byEmail[r.Email]; seen {
			continue
		}
		byEmail[r.Email] = nextID
		modelers = append(modelers, datastore.Modeler{ModelerID: nextID, Name: r.Name, Email: r.Email})
		nextID++
	}

	// Rebuild assignments against the deduplicated ids.
	var assignments []datastore.ModelAssignment
	seen := make(map[string]struct{})
	modelsAfter := make(map[string]struct{})
	for i, r := range cleaned {
		var id int
		switch {
		case r.Email != "":
			id = byEmail[r.Email]
		case r.Name != "":
			id = byName[r.Name]
		default:
			id = noInfoIDs[i]
		}

		key := r.BpsModelID + "\x00" + strconv.Itoa(id)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		modelsAfter[r.BpsModelID] = struct{}{}
		assignments = append(assignments, datastore.ModelAssignment{
			BpsModelID:    r.BpsModelID,
			ModelerID:     id,
			Reviewers:     r.Reviewers,
			ReviewerEmail: r.ReviewerEmail,
		})
	}

	if len(modelsBefore) != len(modelsAfter) {
		return nil, nil, errors.Newf("modeler split lost models: %d before, %d after",
			len(modelsBefore), len(modelsAfter)).
			Component("etl").
			Category(errors.CategoryImport).
			Build()
	}

	return modelers, assignments, nil
}
