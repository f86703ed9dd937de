package seeder

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/furni4/internal/auth"
	"github.com/Additional-Code/furni4/internal/config"
	"github.com/Additional-Code/furni4/internal/entity"
	"github.com/Additional-Code/furni4/internal/repository/user"
	ordersvc "github.com/Additional-Code/furni4/internal/service/order"
)

// Module provides the Seeder to Fx.
var Module = fx.Provide(New)

// Seeder loads reference data for local and demo setups.
type Seeder struct {
	ledger   *ordersvc.Service
	users    auth.CredentialStore
	verifier *auth.Verifier
	cfg      config.Auth
	logger   *zap.Logger
}

// New constructs a Seeder. Orders go through the ledger service so a running
// server drops its cached snapshot and the audit worker sees each insert.
func New(ledger *ordersvc.Service, users *user.Repository, verifier *auth.Verifier, cfg config.Config, logger *zap.Logger) *Seeder {
	return &Seeder{ledger: ledger, users: users, verifier: verifier, cfg: cfg.Auth, logger: logger}
}

// ReferenceOrders returns the two sample sales every fresh ledger starts with.
func ReferenceOrders() []entity.Order {
	return []entity.Order{
		{
			OrderDate:      entity.NewDate(2025, time.March, 7),
			CustomerName:   "John Doe",
			ProductName:    "Chair",
			Quantity:       5,
			Price:          decimal.NewFromInt(100),
			TotalPaid:      decimal.NewFromInt(400),
			PendingBalance: decimal.NewFromInt(100),
			TotalPaidDate:  entity.PaidOn(entity.NewDate(2025, time.March, 7)),
		},
		{
			OrderDate:      entity.NewDate(2025, time.March, 6),
			CustomerName:   "Jane Smith",
			ProductName:    "Table",
			Quantity:       2,
			Price:          decimal.NewFromInt(250),
			TotalPaid:      decimal.NewFromInt(500),
			PendingBalance: decimal.Zero,
			TotalPaidDate:  entity.PaidOn(entity.NewDate(2025, time.March, 6)),
		},
	}
}

// Orders inserts the reference orders into an empty ledger. A ledger that
// already holds orders is left alone.
func (s *Seeder) Orders(ctx context.Context) (int, error) {
	existing, err := s.ledger.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		s.logger.Info("ledger not empty; skipping order seed", zap.Int("orders", len(existing)))
		return 0, nil
	}

	samples := ReferenceOrders()
	for i := range samples {
		if _, err := s.ledger.Create(ctx, &samples[i]); err != nil {
			return i, err
		}
	}

	s.logger.Info("seeded orders", zap.Int("count", len(samples)))
	return len(samples), nil
}

// Admin enrolls the configured administrator. With no configured password an
// existing account is kept and a missing one is reported.
func (s *Seeder) Admin(ctx context.Context) error {
	if s.cfg.AdminPassword != "" {
		return s.verifier.Enroll(ctx, s.cfg.AdminUsername, s.cfg.AdminPassword, auth.RoleAdmin)
	}

	_, err := s.users.FindByUsername(ctx, s.cfg.AdminUsername)
	if errors.Is(err, user.ErrNotFound) {
		s.logger.Warn("no administrator enrolled; set AUTH_ADMIN_PASSWORD or run `furni4 user add`",
			zap.String("username", s.cfg.AdminUsername))
		return nil
	}
	return err
}
