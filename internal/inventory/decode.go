package inventory

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/patchctl/internal/resource"
)

// decodeRecords converts backend rows into records, dropping rows whose
// resource ID can't be parsed and repeat rows for the same machine (the
// first occurrence wins, which is the newest for ordered queries).
func decodeRecords(rows []map[string]any) ([]Record, int) {
	records := make([]Record, 0, len(rows))
	seen := make(map[resource.ID]struct{}, len(rows))
	dropped := 0

	for _, row := range rows {
		id := resource.Parse(str(row, "id"))
		if !id.Valid() {
			dropped++
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		records = append(records, Record{
			ID:                id,
			PowerState:        str(row, "powerState"),
			ProvisioningState: str(row, "provisioningState"),
			Status:            str(row, "status"),
			StartedAt:         timestamp(row, "startedAt"),
			LastModified:      timestamp(row, "lastModified"),
			ErrorCode:         str(row, "errorCode"),
			ErrorMessage:      str(row, "errorMessage"),
		})
	}
	return records, dropped
}

// decodeHistory converts history rows into events, keeping backend order.
// Rows without a usable timestamp are skipped. Rows whose resource ID can't
// be parsed are dropped and counted.
func decodeHistory(rows []map[string]any) ([]HistoryEvent, int) {
	events := make([]HistoryEvent, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		ts := timestamp(row, "timestamp")
		if ts.IsZero() {
			continue
		}
		rawID := str(row, "id")
		id := resource.Parse(rawID)
		if !id.Valid() {
			dropped++
			continue
		}

		events = append(events, HistoryEvent{
			Timestamp:     ts,
			ResourceID:    rawID,
			ResourceName:  id.Name,
			ResourceGroup: id.ResourceGroup,
			EventType:     EventInstallation,
			Status:        normalizeStatus(str(row, "status")),
			StartedBy:     str(row, "startedBy"),
			RebootStatus:  str(row, "rebootStatus"),
			ErrorCode:     str(row, "errorCode"),
			ErrorMessage:  str(row, "errorMessage"),
		})
	}
	return events, dropped
}

func str(row map[string]any, key string) string {
	switch v := row[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func timestamp(row map[string]any, key string) time.Time {
	s := str(row, key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
