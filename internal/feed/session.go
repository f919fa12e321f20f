package feed

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cafedash/internal/domain"
	apperrors "cafedash/internal/errors"
	"cafedash/internal/metrics"
)

var errSubscriptionClosed = errors.New("order subscription closed by store")

// Display is where a session's output goes: rendered pages and
// notifications about individual edits.
type Display interface {
	Show(page Page) error
	Notify(level, message string)
}

// Alert is a Chime-like cue with an explicit lifecycle.
type Alert interface {
	Alerter
	Open() error
	Close()
}

type SessionOptions struct {
	Source        Source
	Relay         Relay
	Alert         Alert
	Display       Display
	View          *View
	Window        time.Duration
	UpdateTimeout time.Duration
	Now           func() time.Time
	Logger        *zap.Logger
}

// Session is one live view instance. Store pushes, relay responses and
// user edits are all applied on the goroutine running Run, one at a time.
type Session struct {
	id         string
	source     Source
	alert      Alert
	display    Display
	view       *View
	updater    *Updater
	subscriber *Subscriber
	window     time.Duration
	now        func() time.Time
	logger     *zap.Logger

	events chan func()
	done   chan struct{}
	ctx    context.Context

	err    error
	saving map[string]int
}

func NewSession(opts SessionOptions) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.View == nil {
		opts.View = NewView(time.UTC)
	}
	if opts.Window <= 0 {
		opts.Window = 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	id := uuid.New().String()
	return &Session{
		id:         id,
		source:     opts.Source,
		alert:      opts.Alert,
		display:    opts.Display,
		view:       opts.View,
		updater:    NewUpdater(opts.Relay, opts.UpdateTimeout),
		subscriber: NewSubscriber(opts.Alert),
		window:     opts.Window,
		now:        opts.Now,
		logger:     opts.Logger.With(zap.String("sessionId", id)),
		events:     make(chan func()),
		done:       make(chan struct{}),
		saving:     map[string]int{},
	}
}

func (s *Session) ID() string {
	return s.id
}

// Run activates the session and processes events until ctx is cancelled.
// Events still in flight at that point are dropped.
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer close(s.done)
	s.ctx = ctx

	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	if s.alert != nil {
		if err := s.alert.Open(); err != nil {
			s.logger.Warn("preparing order alert", zap.Error(err))
		}
		defer s.alert.Close()
	}

	since := WindowStart(s.now(), s.window)
	s.logger.Info("order feed activated", zap.Int64("since", since))
	s.render()

	go s.watch(ctx, since)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("order feed deactivated")
			return
		case fn := <-s.events:
			if ctx.Err() != nil {
				return
			}
			fn()
		}
	}
}

// RequestStatus queues a status edit from the user. It reports false if
// the session has already stopped.
func (s *Session) RequestStatus(orderID, status string) bool {
	return s.post(func() { s.edit(orderID, status) })
}

func (s *Session) post(fn func()) bool {
	select {
	case s.events <- fn:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) watch(ctx context.Context, since int64) {
	err := s.source.Watch(ctx, since, func(snapshot domain.Snapshot) {
		s.post(func() { s.applySnapshot(snapshot) })
	})
	if ctx.Err() != nil {
		return
	}
	if err == nil {
		err = errSubscriptionClosed
	}
	s.post(func() { s.fail(err) })
}

func (s *Session) applySnapshot(snapshot domain.Snapshot) {
	fresh := s.subscriber.Apply(snapshot)
	s.logger.Debug("order snapshot applied",
		zap.Int("orders", len(snapshot)),
		zap.Int("newArrivals", len(fresh)),
	)
	s.render()
}

func (s *Session) fail(err error) {
	s.err = err
	metrics.FeedErrorsTotal.Inc()
	s.logger.Error("order subscription failed", zap.Error(err))
	s.render()
}

func (s *Session) edit(orderID, status string) {
	st, err := Validate(s.subscriber.Orders(), orderID, status)
	if err != nil {
		s.logger.Warn("status edit rejected", zap.String("orderId", orderID), zap.String("status", status), zap.Error(err))
		s.display.Notify("error", err.Error())
		s.render()
		return
	}

	s.saving[orderID]++
	s.render()

	ctx := s.ctx
	go func() {
		err := s.updater.Send(ctx, orderID, st)
		if !s.post(func() { s.finishEdit(orderID, st, err) }) {
			s.logger.Debug("status update response discarded after teardown", zap.String("orderId", orderID))
		}
	}()
}

func (s *Session) finishEdit(orderID string, status domain.Status, err error) {
	if s.saving[orderID]--; s.saving[orderID] <= 0 {
		delete(s.saving, orderID)
	}

	if err != nil {
		s.logger.Warn("status update failed", zap.String("orderId", orderID), zap.Error(err))
		s.display.Notify("error", updateFailureMessage(err))
		s.render()
		return
	}

	if !s.subscriber.Patch(orderID, status) {
		s.logger.Debug("updated order no longer in feed", zap.String("orderId", orderID))
	}
	s.render()
}

func (s *Session) render() {
	saving := make(map[string]bool, len(s.saving))
	for id := range s.saving {
		saving[id] = true
	}
	page := s.view.Render(Model{
		Loaded: s.subscriber.Loaded(),
		Err:    s.err,
		Orders: s.subscriber.Orders(),
		Saving: saving,
	})
	if err := s.display.Show(page); err != nil {
		s.logger.Debug("rendering order list", zap.Error(err))
	}
}

func updateFailureMessage(err error) string {
	if ve, ok := apperrors.IsValidationError(err); ok {
		return "Failed to update order: " + ve.Message
	}
	return "Failed to update order: " + err.Error()
}
