package feed

import (
	"time"

	"cafedash/internal/domain"
)

type State string

const (
	StateLoading State = "loading"
	StateError   State = "error"
	StateData    State = "data"
)

const (
	EmptyPlaceholder = "No orders found"
	LoadErrorMessage = "Failed to load orders"
	timeLayout       = "03:04 PM - Jan 02, 2006"
)

type Option struct {
	Value    domain.Status `json:"value"`
	Label    string        `json:"label"`
	Selected bool          `json:"selected"`
}

type Row struct {
	ID             string        `json:"id"`
	CustomerName   string        `json:"customerName"`
	CustomerNumber string        `json:"customerNumber"`
	OrderDetails   string        `json:"orderDetails"`
	Status         domain.Status `json:"status"`
	Color          string        `json:"color"`
	Time           string        `json:"time"`
	Saving         bool          `json:"saving"`
	Options        []Option      `json:"options"`
}

// Page is one render of the order list. Exactly one of the three states
// applies; Placeholder is set only for an empty data page.
type Page struct {
	State       State  `json:"state"`
	Error       string `json:"error,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Rows        []Row  `json:"rows"`
}

// Model is everything the view needs from the session.
type Model struct {
	Loaded bool
	Err    error
	Orders []domain.Order
	Saving map[string]bool
}

type View struct {
	loc *time.Location
}

func NewView(loc *time.Location) *View {
	if loc == nil {
		loc = time.UTC
	}
	return &View{loc: loc}
}

func (v *View) Render(m Model) Page {
	switch {
	case m.Err != nil:
		return Page{State: StateError, Error: LoadErrorMessage, Rows: []Row{}}
	case !m.Loaded:
		return Page{State: StateLoading, Rows: []Row{}}
	}

	page := Page{State: StateData, Rows: make([]Row, 0, len(m.Orders))}
	for _, o := range m.Orders {
		page.Rows = append(page.Rows, v.row(o, m.Saving[o.ID]))
	}
	if len(page.Rows) == 0 {
		page.Placeholder = EmptyPlaceholder
	}
	return page
}

func (v *View) row(o domain.Order, saving bool) Row {
	status := o.DisplayStatus()
	options := make([]Option, 0, len(domain.Statuses))
	for _, st := range domain.Statuses {
		options = append(options, Option{Value: st, Label: st.Label(), Selected: st == status})
	}

	return Row{
		ID:             o.ID,
		CustomerName:   o.CustomerName,
		CustomerNumber: o.CustomerNumber,
		OrderDetails:   o.OrderDetails,
		Status:         status,
		Color:          status.Color(),
		Time:           FormatTime(o.Timestamp, v.loc),
		Saving:         saving,
		Options:        options,
	}
}

// FormatTime renders an epoch-ms timestamp as "03:04 PM - Jan 02, 2006",
// or "N/A" when there is none.
func FormatTime(ts int64, loc *time.Location) string {
	if ts == 0 {
		return "N/A"
	}
	return time.UnixMilli(ts).In(loc).Format(timeLayout)
}
