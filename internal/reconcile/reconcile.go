// Package reconcile derives the target cohort and dashboard counts from an
// inventory snapshot.
package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/rileyhilliard/patchctl/internal/inventory"
	"github.com/rileyhilliard/patchctl/internal/resource"
)

// Target returns pending minus inProgress, keyed on the full resource ID.
// Invalid IDs and duplicates are dropped. The result keeps pending's order
// and is always a new slice.
func Target(pending, inProgress []resource.ID) []resource.ID {
	exclude := make(map[resource.ID]struct{}, len(inProgress))
	for _, id := range inProgress {
		if id.Valid() {
			exclude[id] = struct{}{}
		}
	}

	target := make([]resource.ID, 0, len(pending))
	seen := make(map[resource.ID]struct{}, len(pending))
	for _, id := range pending {
		if !id.Valid() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, busy := exclude[id]; busy {
			continue
		}
		target = append(target, id)
	}
	return target
}

// Counts are independent totals over the raw classification sets; a machine
// may be counted in more than one.
type Counts struct {
	Pending     int `json:"pending"`
	InProgress  int `json:"inProgress"`
	Rebooting   int `json:"rebooting"`
	Completed   int `json:"completed"`
	Failed      int `json:"failed"`
	Deallocated int `json:"deallocated"`
	Unassessed  int `json:"unassessed"`
	Target      int `json:"target"`
}

// Summary is the reconciled view of one snapshot.
type Summary struct {
	Counts Counts
	Target []resource.ID
	sets   map[inventory.Classification]inventory.Set
}

// Summarize computes counts and the target cohort.
func Summarize(snap inventory.Snapshot) Summary {
	pending := snap.Set(inventory.Pending)
	target := Target(pending.IDs, snap.Set(inventory.InProgress).IDs)

	sets := make(map[inventory.Classification]inventory.Set, len(inventory.Classifications))
	for _, c := range inventory.Classifications {
		sets[c] = snap.Set(c)
	}

	return Summary{
		Counts: Counts{
			Pending:     sets[inventory.Pending].Len(),
			InProgress:  sets[inventory.InProgress].Len(),
			Rebooting:   sets[inventory.Rebooting].Len(),
			Completed:   sets[inventory.RecentlyCompleted].Len(),
			Failed:      sets[inventory.Failed].Len(),
			Deallocated: sets[inventory.Deallocated].Len(),
			Unassessed:  sets[inventory.Unassessed].Len(),
			Target:      len(target),
		},
		Target: target,
		sets:   sets,
	}
}

// Records returns the structured rows behind classification c.
func (s Summary) Records(c inventory.Classification) []inventory.Record {
	return s.sets[c].Records
}

// CohortTarget is the cohort name for the reconciled target.
const CohortTarget = "target"

// CohortNames lists every selectable cohort.
func CohortNames() []string {
	names := []string{CohortTarget}
	for _, c := range inventory.Classifications {
		names = append(names, c.String())
	}
	return names
}

// Cohort selects the machines named by cohort.
func Cohort(s Summary, name string) ([]resource.ID, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == CohortTarget {
		return s.Target, nil
	}
	for _, c := range inventory.Classifications {
		if c.String() == name {
			return s.sets[c].IDs, nil
		}
	}

	names := CohortNames()
	sort.Strings(names)
	return nil, errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown cohort '%s'", name),
		"Choose one of: "+strings.Join(names, ", "))
}
