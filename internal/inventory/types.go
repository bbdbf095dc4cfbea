package inventory

import (
	"time"

	"github.com/rileyhilliard/patchctl/internal/resource"
)

// Classification names one of the patch-lifecycle categories a machine can
// fall into during a cycle. Classifications are independent and may overlap.
type Classification int

const (
	Pending Classification = iota
	InProgress
	Rebooting
	RecentlyCompleted
	Failed
	Deallocated
	Unassessed
)

// Classifications lists every classification in dashboard order.
var Classifications = []Classification{
	Pending, InProgress, Rebooting, RecentlyCompleted, Failed, Deallocated, Unassessed,
}

// String returns the cohort name used on the command line and in exports.
func (c Classification) String() string {
	switch c {
	case Pending:
		return "pending"
	case InProgress:
		return "in-progress"
	case Rebooting:
		return "rebooting"
	case RecentlyCompleted:
		return "completed"
	case Failed:
		return "failed"
	case Deallocated:
		return "deallocated"
	case Unassessed:
		return "unassessed"
	default:
		return "unknown"
	}
}

// Label returns a human-readable heading for the dashboard.
func (c Classification) Label() string {
	switch c {
	case Pending:
		return "Pending updates"
	case InProgress:
		return "Installing"
	case Rebooting:
		return "Rebooting"
	case RecentlyCompleted:
		return "Completed (1h)"
	case Failed:
		return "Failed (24h)"
	case Deallocated:
		return "Deallocated"
	case Unassessed:
		return "Unassessed (7d)"
	default:
		return "Unknown"
	}
}

// Record is one structured row returned by a classification query. Only the
// fields the query projects are populated.
type Record struct {
	ID                resource.ID `json:"id"`
	PowerState        string      `json:"powerState,omitempty"`
	ProvisioningState string      `json:"provisioningState,omitempty"`
	Status            string      `json:"status,omitempty"`
	StartedAt         time.Time   `json:"startedAt,omitzero"`
	LastModified      time.Time   `json:"lastModified,omitzero"`
	ErrorCode         string      `json:"errorCode,omitempty"`
	ErrorMessage      string      `json:"errorMessage,omitempty"`
}

// Set is the result of one classification query for one cycle.
// It is built once and never mutated afterwards.
type Set struct {
	Classification Classification
	IDs            []resource.ID
	Records        []Record
	// Err is set when the backend query failed; IDs and Records are empty.
	Err error
}

// Len returns the number of machines in the set.
func (s Set) Len() int {
	return len(s.IDs)
}

// Status values reported by installation history.
type Status string

const (
	StatusInProgress            Status = "InProgress"
	StatusSucceeded             Status = "Succeeded"
	StatusFailed                Status = "Failed"
	StatusCompletedWithWarnings Status = "CompletedWithWarnings"
	StatusUnknown               Status = "Unknown"
)

// normalizeStatus maps backend strings onto the known statuses.
func normalizeStatus(s string) Status {
	switch Status(s) {
	case StatusInProgress, StatusSucceeded, StatusFailed, StatusCompletedWithWarnings:
		return Status(s)
	default:
		return StatusUnknown
	}
}

// EventInstallation is the only event type the history query produces.
const EventInstallation = "Installation"

// HistoryEvent is one installation-history row.
type HistoryEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	ResourceID    string    `json:"resourceId"`
	ResourceName  string    `json:"resourceName"`
	ResourceGroup string    `json:"resourceGroup"`
	EventType     string    `json:"eventType"`
	Status        Status    `json:"status"`
	StartedBy     string    `json:"startedBy,omitempty"`
	RebootStatus  string    `json:"rebootStatus,omitempty"`
	ErrorCode     string    `json:"errorCode,omitempty"`
	ErrorMessage  string    `json:"errorMessage,omitempty"`
}

// Snapshot is everything one gathering cycle produced.
type Snapshot struct {
	Started  time.Time
	Duration time.Duration
	Sets     map[Classification]Set
	History  []HistoryEvent
	// HistoryErr is set when the history query failed.
	HistoryErr error
	// Warnings are operator-facing notes about degraded queries or scopes.
	Warnings []string
	// Cancelled means the parent context ended mid-gather and the snapshot
	// must be discarded.
	Cancelled bool
}

// Set returns the set for c, or an empty set if it was never gathered.
func (s Snapshot) Set(c Classification) Set {
	if set, ok := s.Sets[c]; ok {
		return set
	}
	return Set{Classification: c}
}
