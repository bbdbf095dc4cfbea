// Package resource decomposes Azure resource identifiers into the
// subscription / resource group / machine name triple used as the equality
// key everywhere else in patchctl.
package resource

import (
	"fmt"
	"strings"
)

// ID identifies one virtual machine. Two IDs are equal iff all three fields
// match exactly (case-sensitive), so ID is usable directly as a map key.
type ID struct {
	Subscription  string `json:"subscriptionId"`
	ResourceGroup string `json:"resourceGroup"`
	Name          string `json:"name"`
}

// Segment names that introduce each field. Matched case-insensitively
// because ARM paths come back in mixed case depending on the table queried.
const (
	segSubscriptions  = "subscriptions"
	segResourceGroups = "resourcegroups"
	segVirtualMachine = "virtualmachines" // Microsoft.Compute
	segHybridMachine  = "machines"        // Microsoft.HybridCompute (Arc)
)

// Parse scans the segments of an ARM resource path and captures the value
// after "subscriptions", "resourceGroups" and "virtualMachines"/"machines".
// Missing fields are left empty; Parse never fails. The first occurrence of
// each key wins, so child resources such as
// .../virtualMachines/vm1/patchAssessmentResults/latest parse to vm1.
func Parse(path string) ID {
	var id ID
	segs := splitPath(path)

	for i := 0; i < len(segs)-1; i++ {
		next := segs[i+1]
		switch strings.ToLower(segs[i]) {
		case segSubscriptions:
			if id.Subscription == "" {
				id.Subscription = next
				i++
			}
		case segResourceGroups:
			if id.ResourceGroup == "" {
				id.ResourceGroup = next
				i++
			}
		case segVirtualMachine, segHybridMachine:
			if id.Name == "" {
				id.Name = next
				i++
			}
		}
	}

	return id
}

// splitPath splits on "/" and drops empty segments (leading slash, "//").
func splitPath(path string) []string {
	raw := strings.Split(strings.TrimSpace(path), "/")
	segs := raw[:0]
	for _, s := range raw {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Valid reports whether every field was located. Invalid IDs must never be
// compared or dispatched against.
func (id ID) Valid() bool {
	return id.Subscription != "" && id.ResourceGroup != "" && id.Name != ""
}

// Key returns a compact "sub/rg/name" form for logs and fingerprints.
func (id ID) Key() string {
	return id.Subscription + "/" + id.ResourceGroup + "/" + id.Name
}

// String renders the canonical Microsoft.Compute resource path.
func (id ID) String() string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Compute/virtualMachines/%s",
		id.Subscription, id.ResourceGroup, id.Name)
}

// ParseAll parses every path and keeps only valid IDs, preserving input
// order. The second return value is the number of dropped (unparseable)
// entries.
func ParseAll(paths []string) ([]ID, int) {
	ids := make([]ID, 0, len(paths))
	dropped := 0
	for _, p := range paths {
		id := Parse(p)
		if !id.Valid() {
			dropped++
			continue
		}
		ids = append(ids, id)
	}
	return ids, dropped
}
