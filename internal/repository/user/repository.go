package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/furni4/internal/database"
	"github.com/Additional-Code/furni4/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/furni4/repository/user")

// ErrNotFound is returned when no credential exists for a username.
var ErrNotFound = errors.New("credential not found")

// Repository owns the credentials table.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// FindByUsername loads the credential for username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*entity.Credential, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.FindByUsername", trace.WithAttributes(attribute.String("user.name", username)))
	defer span.End()

	cred := new(entity.Credential)
	err := r.reader.NewSelect().Model(cred).Where("c.username = ?", username).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return cred, nil
}

// Upsert creates the credential or replaces its hash and role.
func (r *Repository) Upsert(ctx context.Context, username, passwordHash, role string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("empty username")
	}
	ctx, span := repoTracer.Start(ctx, "UserRepository.Upsert", trace.WithAttributes(attribute.String("user.name", username)))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*entity.Credential)(nil)).
			Set("password_hash = ?", passwordHash).
			Set("role = ?", role).
			Where("username = ?", username).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil || n > 0 {
			return err
		}
		_, err = tx.NewInsert().Model(&entity.Credential{
			Username:     username,
			PasswordHash: passwordHash,
			Role:         role,
		}).Exec(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
	}
	return err
}
