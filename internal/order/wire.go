package order

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"cafedash/internal/config"
	"cafedash/internal/domain"
	"cafedash/internal/infrastructure/firebase"
	"cafedash/internal/notify"
	"cafedash/internal/order/controller"
	orderrepo "cafedash/internal/order/repository"
	"cafedash/internal/order/service"
	"cafedash/internal/order/usecase"
)

// Store is everything the order module needs from the remote order store.
type Store interface {
	usecase.OrderRepository
	usecase.OrderLister
	Watch(ctx context.Context, sinceMillis int64, push func(domain.Snapshot)) error
}

type Module struct {
	Controller   *controller.OrderController
	UpdateStatus *usecase.UpdateStatusUseCase
	Store        Store

	kafka *notify.KafkaNotifier
}

// NewStore picks the order store adapter named by cfg.Store.Driver. db is
// only used by the mysql driver.
func NewStore(cfg *config.Config, db *sql.DB) (Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverFirebase:
		if cfg.Firebase.DatabaseURL == "" {
			return nil, fmt.Errorf("FIREBASE_DATABASE_URL is required for the firebase store")
		}
		return orderrepo.NewFirebaseOrderRepository(firebase.NewClient(cfg.Firebase), cfg.Store.OrdersPath), nil
	case config.StoreDriverMySQL:
		if db == nil {
			return nil, fmt.Errorf("mysql store needs a database connection")
		}
		return orderrepo.NewMySQLOrderRepository(db, cfg.Store.PollInterval), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func NewModule(store Store, cfg *config.Config, logger *zap.Logger) *Module {
	m := &Module{Store: store}

	var notifiers []service.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.Notify.WebhookURL, &http.Client{}))
	}
	if len(cfg.Notify.KafkaBrokers) > 0 {
		m.kafka = notify.NewKafkaNotifier(notify.NewKafkaWriter(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic))
		notifiers = append(notifiers, m.kafka)
	}
	logger.Info("status notifiers configured", zap.Int("count", len(notifiers)))

	notificationSvc := service.NewNotificationService(logger, notifiers...)

	m.UpdateStatus = usecase.NewUpdateStatusUseCase(
		store,
		notificationSvc,
		logger,
		cfg.Notify.Timeout,
	)

	m.Controller = controller.NewOrderController(
		m.UpdateStatus,
		usecase.NewListOrdersUseCase(store, cfg.Feed.Window),
		logger,
	)

	return m
}

// Close drains background notifications and releases the Kafka writer.
func (m *Module) Close() error {
	m.UpdateStatus.Wait()
	if m.kafka != nil {
		return m.kafka.Close()
	}
	return nil
}
