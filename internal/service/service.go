// Package service реализует бизнес-логику витрины: учётные записи и сессии, корзину,
// промокоды, заказы и их отслеживание.
package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/streetwear-storefront/internal/repository"
	"github.com/mmeshcher/streetwear-storefront/internal/security"
	"github.com/mmeshcher/streetwear-storefront/internal/shipping"
	"github.com/mmeshcher/streetwear-storefront/internal/voucher"
)

const (
	defaultResetTTL          = 15 * time.Minute
	defaultPollInterval      = 5 * time.Second
	defaultAdminSeedPassword = "admin123"
	defaultShipmentBatchSize = 100
)

// EventPublisher публикует доменные события во внешнюю шину.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// CodeSender доставляет пользователю код сброса пароля.
type CodeSender interface {
	SendResetCode(ctx context.Context, email, code string) error
}

// ShipmentFeed возвращает состояние отправления у перевозчика.
type ShipmentFeed interface {
	GetShipment(ctx context.Context, trackingNumber string) (*shipping.Shipment, int, time.Duration, error)
}

// Options задаёт необязательные зависимости и параметры сервиса.
type Options struct {
	Logger            *zap.Logger
	Catalog           *voucher.Catalog
	Hasher            *security.Hasher
	Events            EventPublisher
	Codes             CodeSender
	Shipments         ShipmentFeed
	ResetTTL          time.Duration
	PollInterval      time.Duration
	AdminSeedPassword string
}

// Service содержит бизнес-логику витрины. Все изменения состояния сериализуются мьютексом,
// а записи, затрагивающие несколько ключей, фиксируются одним пакетом.
type Service struct {
	store     repository.Store
	catalog   *voucher.Catalog
	hasher    *security.Hasher
	events    EventPublisher
	codes     CodeSender
	shipments ShipmentFeed
	logger    *zap.Logger

	resetTTL          time.Duration
	pollInterval      time.Duration
	adminSeedPassword string

	// shipmentCursor используется только горутиной опроса перевозчика.
	shipmentBatchSize int
	shipmentCursor    int

	now func() time.Time
	mu  sync.Mutex
}

// NewService создаёт сервис поверх хранилища; незаданные опции заменяются значениями по умолчанию.
func NewService(store repository.Store, opts Options) *Service {
	s := &Service{
		store:             store,
		catalog:           opts.Catalog,
		hasher:            opts.Hasher,
		events:            opts.Events,
		codes:             opts.Codes,
		shipments:         opts.Shipments,
		logger:            opts.Logger,
		resetTTL:          opts.ResetTTL,
		pollInterval:      opts.PollInterval,
		adminSeedPassword: opts.AdminSeedPassword,
		shipmentBatchSize: defaultShipmentBatchSize,
		now:               time.Now,
	}

	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.catalog == nil {
		s.catalog = voucher.DefaultCatalog()
	}
	if s.hasher == nil {
		s.hasher = security.NewHasher(security.DefaultParams)
	}
	if s.events == nil {
		s.events = nopPublisher{}
	}
	if s.codes == nil {
		s.codes = logCodeSender{logger: s.logger}
	}
	if s.resetTTL <= 0 {
		s.resetTTL = defaultResetTTL
	}
	if s.pollInterval <= 0 {
		s.pollInterval = defaultPollInterval
	}
	if s.adminSeedPassword == "" {
		s.adminSeedPassword = defaultAdminSeedPassword
	}

	return s
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Vouchers возвращает каталог промокодов.
func (s *Service) Vouchers() []voucher.Voucher {
	return s.catalog.List()
}

func (s *Service) publish(ctx context.Context, routingKey string, event any) {
	if err := s.events.Publish(ctx, routingKey, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("routingKey", routingKey), zap.Error(err))
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }

// logCodeSender пишет код сброса в отладочный лог вместо доставки по почте.
type logCodeSender struct {
	logger *zap.Logger
}

func (l logCodeSender) SendResetCode(_ context.Context, email, code string) error {
	l.logger.Debug("password reset code issued", zap.String("email", email), zap.String("code", code))
	return nil
}

type actorKey struct{}

const systemActor = "system"

// WithActor сохраняет в контексте идентификатор пользователя, выполняющего действие.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

func actorFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(actorKey{}).(string); ok && id != "" {
		return id
	}
	return systemActor
}
