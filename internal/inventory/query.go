package inventory

import (
	"fmt"
	"strings"
	"time"
)

// Query is a structured Resource Graph query. KQL renders the stages in a
// fixed order: source, extend, where, join, summarize, having, project,
// order by, take.
type Query struct {
	Name      string
	Source    string
	Extend    []string
	Where     []string
	Join      string
	Summarize string
	// Having filters rows after Summarize.
	Having  []string
	Project string
	OrderBy string
	Limit   int
}

// KQL renders the query text. The output is deterministic for a given Query.
func (q Query) KQL() string {
	stages := []string{q.Source}
	for _, e := range q.Extend {
		stages = append(stages, "extend "+e)
	}
	for _, w := range q.Where {
		stages = append(stages, "where "+w)
	}
	if q.Join != "" {
		stages = append(stages, q.Join)
	}
	if q.Summarize != "" {
		stages = append(stages, "summarize "+q.Summarize)
	}
	for _, h := range q.Having {
		stages = append(stages, "where "+h)
	}
	if q.Project != "" {
		stages = append(stages, "project "+q.Project)
	}
	if q.OrderBy != "" {
		stages = append(stages, "order by "+q.OrderBy)
	}
	if q.Limit > 0 {
		stages = append(stages, fmt.Sprintf("take %d", q.Limit))
	}
	return strings.Join(stages, "\n| ")
}

// Timespan renders d as a KQL timespan literal (24h, 20m, 90s).
func Timespan(d time.Duration) string {
	switch {
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return fmt.Sprintf("%ds", d/time.Second)
	}
}

const (
	typeVM           = `type =~ "microsoft.compute/virtualmachines"`
	typeAssessment   = `type =~ "microsoft.compute/virtualmachines/patchassessmentresults"`
	typeInstallation = `type =~ "microsoft.compute/virtualmachines/patchinstallationresults"`

	assessmentVMID   = `vmId = tostring(split(id, "/patchAssessmentResults/")[0])`
	installationVMID = `vmId = tostring(split(id, "/patchInstallationResults/")[0])`

	vmPowerState        = `powerState = tostring(properties.extended.instanceView.powerState.code)`
	vmProvisioningState = `provisioningState = tostring(properties.provisioningState)`

	installFields = `status = tostring(properties.status), ` +
		`startedAt = todatetime(properties.startDateTime), ` +
		`lastModified = todatetime(properties.lastModifiedDateTime), ` +
		`errorCode = tostring(properties.errorDetails.code), ` +
		`errorMessage = tostring(properties.errorDetails.message)`

	installProject = `id = vmId, status, startedAt, lastModified, errorCode, errorMessage`

	// installWindow bounds every installation-record query.
	installWindow = 24 * time.Hour
	// assessmentWindow bounds the pending-updates query.
	assessmentWindow = 24 * time.Hour
	// completedWindow is how recently a terminal record must have changed.
	completedWindow = time.Hour
	// unassessedWindow is how long a machine may go without assessment.
	unassessedWindow = 7 * 24 * time.Hour
)

// classificationBuckets are the availablePatchCountByClassification fields
// summed into the pending total.
var classificationBuckets = []string{
	"security", "critical", "updateRollup", "featurePack",
	"servicePack", "tools", "other", "updates",
}

func ago(d time.Duration) string {
	return "ago(" + Timespan(d) + ")"
}

// PendingQuery finds machines whose latest assessment in the last 24h
// reports at least one available update.
func PendingQuery() Query {
	terms := make([]string, len(classificationBuckets))
	for i, b := range classificationBuckets {
		terms[i] = fmt.Sprintf("coalesce(toint(properties.availablePatchCountByClassification.%s), 0)", b)
	}

	return Query{
		Name:   Pending.String(),
		Source: "patchassessmentresources",
		Extend: []string{
			assessmentVMID,
			"assessedAt = todatetime(properties.lastModifiedDateTime)",
			"total = " + strings.Join(terms, " + "),
		},
		Where:     []string{typeAssessment, "assessedAt > " + ago(assessmentWindow)},
		Summarize: "arg_max(assessedAt, total) by vmId",
		Having:    []string{"total > 0"},
		Project:   "id = vmId",
	}
}

func installationQuery(name string, where ...string) Query {
	return Query{
		Name:    name,
		Source:  "patchinstallationresources",
		Extend:  []string{installationVMID, installFields},
		Where:   append([]string{typeInstallation, "startedAt > " + ago(installWindow)}, where...),
		Project: installProject,
		OrderBy: "lastModified desc",
	}
}

// InProgressQuery finds installation runs started in the last 24h that are
// still running.
func InProgressQuery() Query {
	return installationQuery(InProgress.String(), `status == "InProgress"`)
}

// RecentlyCompletedQuery finds installation runs started in the last 24h
// that reached a terminal status within the last hour.
func RecentlyCompletedQuery() Query {
	return installationQuery(RecentlyCompleted.String(),
		`status in ("Succeeded", "Failed", "CompletedWithWarnings")`,
		"lastModified > "+ago(completedWindow))
}

// FailedQuery finds installation runs started in the last 24h that failed.
func FailedQuery() Query {
	return installationQuery(Failed.String(), `status == "Failed"`)
}

// RebootingQuery finds machines changing power state or being updated.
func RebootingQuery() Query {
	return Query{
		Name:   Rebooting.String(),
		Source: "resources",
		Extend: []string{vmPowerState + ", " + vmProvisioningState},
		Where: []string{
			typeVM,
			`powerState in~ ("PowerState/starting", "PowerState/stopping", "PowerState/deallocating") or provisioningState =~ "Updating"`,
		},
		Project: "id, powerState, provisioningState",
	}
}

// DeallocatedQuery finds machines whose power state is exactly deallocated.
func DeallocatedQuery() Query {
	return Query{
		Name:    Deallocated.String(),
		Source:  "resources",
		Extend:  []string{vmPowerState + ", " + vmProvisioningState},
		Where:   []string{typeVM, `powerState =~ "PowerState/deallocated"`},
		Project: "id, powerState, provisioningState",
	}
}

// UnassessedQuery finds running machines of osType with no assessment in
// the last 7 days.
func UnassessedQuery(osType string) Query {
	recent := strings.Join([]string{
		"patchassessmentresources",
		"where " + typeAssessment,
		"where todatetime(properties.lastModifiedDateTime) > " + ago(unassessedWindow),
		"extend " + assessmentVMID,
		"project joinKey = tolower(vmId)",
	}, " | ")

	return Query{
		Name:   Unassessed.String(),
		Source: "resources",
		Extend: []string{
			vmPowerState,
			"osType = tostring(properties.storageProfile.osDisk.osType)",
			"joinKey = tolower(id)",
		},
		Where: []string{
			typeVM,
			`powerState =~ "PowerState/running"`,
			fmt.Sprintf("osType =~ %q", osType),
		},
		Join:    "join kind=leftanti (" + recent + ") on joinKey",
		Project: "id, powerState",
	}
}

// HistoryQuery fetches installation events modified within window, newest
// first, at most limit rows.
func HistoryQuery(window time.Duration, limit int) Query {
	return Query{
		Name:   "history",
		Source: "patchinstallationresources",
		Extend: []string{
			installationVMID,
			"timestamp = todatetime(properties.lastModifiedDateTime)",
			"status = tostring(properties.status)",
			"startedBy = tostring(properties.startedBy)",
			"rebootStatus = tostring(properties.rebootStatus)",
			"errorCode = tostring(properties.errorDetails.code)",
			"errorMessage = tostring(properties.errorDetails.message)",
		},
		Where:   []string{typeInstallation, "timestamp > " + ago(window)},
		Project: "timestamp, id = vmId, status, startedBy, rebootStatus, errorCode, errorMessage",
		OrderBy: "timestamp desc",
		Limit:   limit,
	}
}

// QueryFor returns the builder output for c.
func QueryFor(c Classification, unassessedOSType string) Query {
	switch c {
	case Pending:
		return PendingQuery()
	case InProgress:
		return InProgressQuery()
	case Rebooting:
		return RebootingQuery()
	case RecentlyCompleted:
		return RecentlyCompletedQuery()
	case Failed:
		return FailedQuery()
	case Deallocated:
		return DeallocatedQuery()
	case Unassessed:
		return UnassessedQuery(unassessedOSType)
	default:
		return Query{Name: c.String()}
	}
}
