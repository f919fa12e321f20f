package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Status
		ok    bool
	}{
		{name: "pending", input: "Pending", want: StatusPending, ok: true},
		{name: "in progress", input: "In-Progress", want: StatusInProgress, ok: true},
		{name: "ready", input: "Ready", want: StatusReady, ok: true},
		{name: "completed", input: "Completed", want: StatusCompleted, ok: true},
		{name: "cancelled", input: "Cancelled", want: StatusCancelled, ok: true},
		{name: "unknown", input: "Bogus", ok: false},
		{name: "wrong case", input: "ready", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseStatus(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeStatus_DefaultsToPending(t *testing.T) {
	assert.Equal(t, StatusPending, NormalizeStatus(""))
	assert.Equal(t, StatusPending, NormalizeStatus("Bogus"))
	assert.Equal(t, StatusReady, NormalizeStatus("Ready"))
}

func TestStatus_LabelAndColor(t *testing.T) {
	assert.Equal(t, "In Progress", StatusInProgress.Label())
	assert.Equal(t, "#1E90FF", StatusInProgress.Color())
	assert.Equal(t, "#f3b43f", Status("Bogus").Color())
	assert.Equal(t, "Pending", Status("").Label())
}

func TestStatuses_AllFive(t *testing.T) {
	assert.Equal(t, []Status{StatusPending, StatusInProgress, StatusReady, StatusCompleted, StatusCancelled}, Statuses)
}

func TestValidOrderID(t *testing.T) {
	for _, id := range []string{"-Nx3abc", "order_42", "A", "ñandú"} {
		assert.True(t, ValidOrderID(id), id)
	}
	for _, id := range []string{"", "../settings", "a/b", "a.b", "a#b", "a$b", "a[0]", "a]", "a?x=1", "a\\b", "a\nb", "a\x00b"} {
		assert.False(t, ValidOrderID(id), "%q", id)
	}
}

func TestOrderFromFields_Complete(t *testing.T) {
	o := OrderFromFields("abc", map[string]any{
		"customerName":   "Ada",
		"customerNumber": "+15551234567",
		"orderDetails":   "2x flat white",
		"status":         "Ready",
		"timestamp":      float64(1700000000000),
	})

	assert.Equal(t, "abc", o.ID)
	assert.Equal(t, "Ada", o.CustomerName)
	assert.Equal(t, "+15551234567", o.CustomerNumber)
	assert.Equal(t, "2x flat white", o.OrderDetails)
	assert.Equal(t, StatusReady, o.Status)
	assert.Equal(t, int64(1700000000000), o.Timestamp)
}

func TestOrderFromFields_MissingFieldsDefault(t *testing.T) {
	o := OrderFromFields("x", map[string]any{})

	assert.Equal(t, "x", o.ID)
	assert.Empty(t, o.CustomerName)
	assert.Equal(t, StatusPending, o.Status)
	assert.Zero(t, o.Timestamp)
	assert.True(t, o.CreatedAt().IsZero())
}

func TestOrderFromFields_LenientTypes(t *testing.T) {
	var fields map[string]any
	dec := json.NewDecoder(strings.NewReader(`{"timestamp":"1700000000123","customerNumber":5551234,"status":42}`))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&fields))

	o := OrderFromFields("y", fields)

	assert.Equal(t, int64(1700000000123), o.Timestamp)
	assert.Equal(t, "5551234", o.CustomerNumber)
	assert.Equal(t, Status("42"), o.Status)
	assert.Equal(t, StatusPending, o.DisplayStatus())
}

func TestSnapshot_SortedNewestFirst(t *testing.T) {
	snap := Snapshot{
		"A": {Timestamp: 100},
		"B": {Timestamp: 200},
		"C": {Timestamp: 300},
		"D": {Timestamp: 200},
	}

	orders := snap.Sorted()

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	assert.Equal(t, []string{"C", "B", "D", "A"}, ids)
	for i := 1; i < len(orders); i++ {
		assert.GreaterOrEqual(t, orders[i-1].Timestamp, orders[i].Timestamp)
	}
}

func TestSnapshot_SortedEmpty(t *testing.T) {
	orders := Snapshot{}.Sorted()
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}
