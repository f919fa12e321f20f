package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"cafedash/internal/domain"
	"cafedash/internal/errors"
	"cafedash/internal/infrastructure/firebase"
)

type FirebaseClient interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	Patch(ctx context.Context, path string, fields any) error
	Stream(ctx context.Context, path string, query url.Values, handle func(firebase.Event) error) error
}

type FirebaseOrderRepository struct {
	client FirebaseClient
	path   string
}

func NewFirebaseOrderRepository(client FirebaseClient, ordersPath string) *FirebaseOrderRepository {
	return &FirebaseOrderRepository{client: client, path: strings.Trim(ordersPath, "/")}
}

// Watch streams the orders with timestamp >= sinceMillis. Incremental
// events are folded into a local mirror so push always receives the full
// matching set.
func (r *FirebaseOrderRepository) Watch(ctx context.Context, sinceMillis int64, push func(domain.Snapshot)) error {
	mirror := map[string]any{}

	return r.client.Stream(ctx, r.path, firebase.Query("timestamp", sinceMillis), func(ev firebase.Event) error {
		value, err := decode(ev.Data)
		if err != nil {
			return fmt.Errorf("decoding %s at %s: %w", ev.Type, ev.Path, err)
		}

		segments := splitPath(ev.Path)
		switch ev.Type {
		case "put":
			mirror = setPath(mirror, segments, value)
		case "patch":
			fields, ok := value.(map[string]any)
			if !ok {
				return fmt.Errorf("patch at %s is not an object", ev.Path)
			}
			for key, v := range fields {
				mirror = setPath(mirror, append(append([]string{}, segments...), splitPath(key)...), v)
			}
		}

		push(snapshotOf(mirror))
		return nil
	})
}

func (r *FirebaseOrderRepository) ListSince(ctx context.Context, sinceMillis int64) ([]domain.Order, error) {
	body, err := r.client.Get(ctx, r.path, firebase.Query("timestamp", sinceMillis))
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	value, err := decode(body)
	if err != nil {
		return nil, fmt.Errorf("decoding orders: %w", err)
	}
	tree, _ := value.(map[string]any)
	return snapshotOf(tree).Sorted(), nil
}

func (r *FirebaseOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	body, err := r.client.Get(ctx, r.path+"/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	value, err := decode(body)
	if err != nil {
		return nil, fmt.Errorf("decoding order %s: %w", id, err)
	}
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}

	order := domain.OrderFromFields(id, fields)
	return &order, nil
}

func (r *FirebaseOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	if err := r.client.Patch(ctx, r.path+"/"+id, map[string]string{"status": string(status)}); err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}
	return nil
}

func decode(raw json.RawMessage) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func splitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// setPath writes value at segments below node and returns the new node.
// A nil value deletes.
func setPath(node map[string]any, segments []string, value any) map[string]any {
	if len(segments) == 0 {
		obj, ok := value.(map[string]any)
		if !ok {
			return map[string]any{}
		}
		return obj
	}
	if node == nil {
		node = map[string]any{}
	}

	key := segments[0]
	if len(segments) == 1 {
		if value == nil {
			delete(node, key)
		} else {
			node[key] = value
		}
		return node
	}

	child, _ := node[key].(map[string]any)
	if child == nil && value == nil {
		return node
	}
	child = setPath(child, segments[1:], value)
	if len(child) == 0 {
		delete(node, key)
	} else {
		node[key] = child
	}
	return node
}

func snapshotOf(tree map[string]any) domain.Snapshot {
	snap := make(domain.Snapshot, len(tree))
	for id, v := range tree {
		// Non-object records still belong to the window; they render as
		// id-only rows.
		fields, _ := v.(map[string]any)
		snap[id] = domain.OrderFromFields(id, fields)
	}
	return snap
}
