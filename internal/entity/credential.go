package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Credential is the stored login for a dashboard user.
type Credential struct {
	bun.BaseModel `bun:"table:credentials,alias:c"`

	ID           int64     `bun:",pk,autoincrement"`
	Username     string    `bun:"username,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         string    `bun:"role,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
