package domain

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In-Progress"
	StatusReady      Status = "Ready"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

// Statuses lists every status in the order the dashboard offers them.
var Statuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusReady,
	StatusCompleted,
	StatusCancelled,
}

var statusLabels = map[Status]string{
	StatusPending:    "Pending",
	StatusInProgress: "In Progress",
	StatusReady:      "Ready",
	StatusCompleted:  "Completed",
	StatusCancelled:  "Cancelled",
}

var statusColors = map[Status]string{
	StatusPending:    "#f3b43f",
	StatusInProgress: "#1E90FF",
	StatusReady:      "#2ad02a",
	StatusCompleted:  "#31901c",
	StatusCancelled:  "#ef4848",
}

// ParseStatus reports whether s is exactly one of the five known statuses.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	if _, ok := statusLabels[st]; ok {
		return st, true
	}
	return "", false
}

// NormalizeStatus maps absent or unrecognised values to StatusPending.
func NormalizeStatus(s string) Status {
	if st, ok := ParseStatus(s); ok {
		return st
	}
	return StatusPending
}

func (s Status) Label() string {
	return statusLabels[NormalizeStatus(string(s))]
}

func (s Status) Color() string {
	return statusColors[NormalizeStatus(string(s))]
}

// Order is one customer order as stored under the orders collection.
// Status keeps the raw stored value; use DisplayStatus for anything shown
// to staff.
type Order struct {
	ID             string `json:"id"`
	CustomerName   string `json:"customerName"`
	CustomerNumber string `json:"customerNumber"`
	OrderDetails   string `json:"orderDetails"`
	Status         Status `json:"status"`
	Timestamp      int64  `json:"timestamp"`
}

func (o Order) DisplayStatus() Status {
	return NormalizeStatus(string(o.Status))
}

// CreatedAt returns the zero time when the record carries no timestamp.
func (o Order) CreatedAt() time.Time {
	if o.Timestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(o.Timestamp)
}

// Snapshot is the full set of records matching a feed query, keyed by id.
type Snapshot map[string]Order

// OrderFromFields builds an Order from a schema-less record. Missing or
// mistyped fields fall back to their zero value and an absent status
// becomes Pending; the record itself is never rejected.
// ValidOrderID reports whether id can name a single child of the orders
// collection: non-empty, without path or query characters and without
// control characters.
func ValidOrderID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < 0x20 || r == 0x7f {
			return false
		}
		switch r {
		case '/', '.', '#', '$', '[', ']', '?', '\\':
			return false
		}
	}
	return true
}

func OrderFromFields(id string, fields map[string]any) Order {
	o := Order{
		ID:             id,
		CustomerName:   stringField(fields, "customerName"),
		CustomerNumber: stringField(fields, "customerNumber"),
		OrderDetails:   stringField(fields, "orderDetails"),
		Status:         Status(stringField(fields, "status")),
		Timestamp:      int64Field(fields, "timestamp"),
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	return o
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

func int64Field(fields map[string]any, key string) int64 {
	switch v := fields[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return int64(f)
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// SortNewestFirst orders by descending timestamp, breaking ties by id so
// that equal timestamps render in a stable order.
func SortNewestFirst(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].Timestamp != orders[j].Timestamp {
			return orders[i].Timestamp > orders[j].Timestamp
		}
		return orders[i].ID < orders[j].ID
	})
}

// Sorted flattens the snapshot into a newest-first slice.
func (s Snapshot) Sorted() []Order {
	orders := make([]Order, 0, len(s))
	for id, o := range s {
		o.ID = id
		orders = append(orders, o)
	}
	SortNewestFirst(orders)
	return orders
}

// StatusChange is what downstream automation receives after a status write.
type StatusChange struct {
	OrderID        string `json:"orderId"`
	NewStatus      Status `json:"newStatus"`
	PreviousStatus Status `json:"previousStatus"`
	CustomerName   string `json:"customerName"`
	Phone          string `json:"phone"`
	Timestamp      int64  `json:"timestamp"`
}
