package terminal

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafedash/internal/domain"
	"cafedash/internal/feed"
)

func TestDisplay_States(t *testing.T) {
	view := feed.NewView(time.UTC)

	tests := []struct {
		name     string
		model    feed.Model
		contains []string
	}{
		{name: "loading", model: feed.Model{}, contains: []string{"Loading orders"}},
		{name: "error", model: feed.Model{Err: errors.New("stream dropped")}, contains: []string{feed.LoadErrorMessage}},
		{name: "empty", model: feed.Model{Loaded: true}, contains: []string{feed.EmptyPlaceholder}},
		{
			name: "rows",
			model: feed.Model{
				Loaded: true,
				Orders: []domain.Order{
					{ID: "B", CustomerName: "Bob", OrderDetails: "Latte", Status: domain.StatusReady, Timestamp: 200},
					{ID: "A", CustomerName: "Ann", OrderDetails: "Mocha", Timestamp: 100},
				},
				Saving: map[string]bool{"A": true},
			},
			contains: []string{"Customer", "Bob", "Latte", "Ready", "Ann", "Pending (saving)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			d := NewDisplay(&out, false)

			require.NoError(t, d.Show(view.Render(tt.model)))

			for _, s := range tt.contains {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}

func TestDisplay_Resolve(t *testing.T) {
	var out bytes.Buffer
	d := NewDisplay(&out, true)
	page := feed.NewView(time.UTC).Render(feed.Model{
		Loaded: true,
		Orders: []domain.Order{{ID: "newest", Timestamp: 2}, {ID: "older", Timestamp: 1}},
	})
	require.NoError(t, d.Show(page))

	assert.Equal(t, "newest", d.Resolve("1"))
	assert.Equal(t, "older", d.Resolve("#2"))
	assert.Equal(t, "9", d.Resolve("9"))
	assert.Equal(t, "order-x", d.Resolve("order-x"))
	assert.Contains(t, out.String(), clearScreen)
}

func TestDisplay_Notify(t *testing.T) {
	var out bytes.Buffer
	NewDisplay(&out, false).Notify("error", "Failed to update order: boom")

	assert.Contains(t, out.String(), "Failed to update order: boom")
}

func TestBell(t *testing.T) {
	var out bytes.Buffer
	b := NewBell(&out)

	require.NoError(t, b.Prepare("ignored"))
	require.NoError(t, b.Restart())
	require.NoError(t, b.Restart())
	b.Release()

	assert.Equal(t, "\a\a", out.String())
}
