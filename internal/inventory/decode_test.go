package inventory

import (
	"testing"
	"time"

	"github.com/rileyhilliard/patchctl/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecords(t *testing.T) {
	rows := []map[string]any{
		{
			"id":           "/subscriptions/s1/resourceGroups/rgA/providers/Microsoft.Compute/virtualMachines/vm1",
			"status":       "Failed",
			"startedAt":    "2026-10-19T08:00:00Z",
			"lastModified": "2026-10-19T08:30:00.123Z",
			"errorCode":    "PatchInstallationFailed",
		},
		{"id": "/subscriptions/s1/resourceGroups/rgA"},
		{"id": nil},
		{"id": "/subscriptions/s1/resourceGroups/rgA/providers/Microsoft.Compute/virtualMachines/vm1", "status": "Failed"},
		{"id": "/subscriptions/s1/resourceGroups/rgB/providers/Microsoft.Compute/virtualMachines/vm2", "powerState": "PowerState/deallocated"},
	}

	records, dropped := decodeRecords(rows)

	assert.Equal(t, 2, dropped)
	require.Len(t, records, 2)
	assert.Equal(t, resource.ID{Subscription: "s1", ResourceGroup: "rgA", Name: "vm1"}, records[0].ID)
	assert.Equal(t, "PatchInstallationFailed", records[0].ErrorCode)
	assert.Equal(t, time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC), records[0].StartedAt)
	assert.Equal(t, 123*time.Millisecond, time.Duration(records[0].LastModified.Nanosecond()))
	assert.Equal(t, "PowerState/deallocated", records[1].PowerState)
}

func TestDecodeHistory(t *testing.T) {
	rows := []map[string]any{
		{
			"timestamp":    "2026-10-19T08:30:00Z",
			"id":           "/subscriptions/s1/resourceGroups/rgA/providers/Microsoft.Compute/virtualMachines/vm1",
			"status":       "Succeeded",
			"rebootStatus": "Completed",
		},
		{"timestamp": "", "id": "x"},
		{"timestamp": "not a time"},
		{"timestamp": "2026-10-19T08:25:00Z", "id": "garbage", "status": "Failed"},
		{
			"timestamp": "2026-10-19T08:20:00Z",
			"id":        "/subscriptions/s1/resourceGroups/rgB/providers/Microsoft.Compute/virtualMachines/vm2",
			"status":    "Weird",
		},
	}

	events, dropped := decodeHistory(rows)
	require.Len(t, events, 2)
	assert.Equal(t, 1, dropped)

	assert.Equal(t, "vm1", events[0].ResourceName)
	assert.Equal(t, "rgA", events[0].ResourceGroup)
	assert.Equal(t, StatusSucceeded, events[0].Status)
	assert.Equal(t, EventInstallation, events[0].EventType)
	assert.Equal(t, "Completed", events[0].RebootStatus)
	assert.Equal(t, StatusUnknown, events[1].Status)
	for _, e := range events {
		assert.NotEmpty(t, e.ResourceName, "unparseable IDs never become events")
	}
}

func TestStr(t *testing.T) {
	row := map[string]any{"s": "x", "n": 3.0, "b": true}
	assert.Equal(t, "x", str(row, "s"))
	assert.Equal(t, "3", str(row, "n"))
	assert.Equal(t, "true", str(row, "b"))
	assert.Equal(t, "", str(row, "missing"))
}
