package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Additional-Code/furni4/internal/entity"
	"github.com/Additional-Code/furni4/internal/repository/user"
)

// CredentialStore is the authoritative source of logins.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*entity.Credential, error)
	Upsert(ctx context.Context, username, passwordHash, role string) error
}

// Verifier checks passwords against bcrypt hashes in the credential store.
type Verifier struct {
	store  CredentialStore
	cost   int
	logger *zap.Logger
}

// NewVerifier builds a Verifier using the default bcrypt cost.
func NewVerifier(store CredentialStore, logger *zap.Logger) *Verifier {
	return &Verifier{store: store, cost: bcrypt.DefaultCost, logger: logger}
}

// Verify reports whether username and password match a stored credential.
func (v *Verifier) Verify(ctx context.Context, username, password string) bool {
	_, err := v.Authenticate(ctx, username, password)
	return err == nil
}

// Authenticate returns the session for a valid login. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (v *Verifier) Authenticate(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	cred, err := v.store.FindByUsername(ctx, username)
	if errors.Is(err, user.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		v.logger.Error("credential lookup failed", zap.String("username", username), zap.Error(err))
		return Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return Session{Username: cred.Username, Role: cred.Role}, nil
}

// Enroll hashes password and creates or resets the credential. The username
// is stored trimmed, matching how Authenticate looks it up.
func (v *Verifier) Enroll(ctx context.Context, username, password, role string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username is required")
	}
	if password == "" {
		return errors.New("password is required")
	}
	if !ValidRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := v.store.Upsert(ctx, username, string(hash), role); err != nil {
		return err
	}
	v.logger.Info("credential enrolled", zap.String("username", username), zap.String("role", role))
	return nil
}
