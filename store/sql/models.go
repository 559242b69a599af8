package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-attendance/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type sessionRecord struct {
	bun.BaseModel `bun:"table:attendance_sessions,alias:ats"`

	ID           string     `bun:"id,pk"`
	SessionKey   string     `bun:"session_key,notnull"`
	UID          string     `bun:"uid,notnull"`
	Email        string     `bun:"email,notnull"`
	DisplayName  string     `bun:"display_name,notnull"`
	IDToken      string     `bun:"id_token,notnull"`
	RefreshToken string     `bun:"refresh_token,notnull"`
	ExpiresAt    *time.Time `bun:"expires_at,nullzero"`
	Status       string     `bun:"status,notnull"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newSessionRecord(in core.SessionRecord, now time.Time) *sessionRecord {
	record := &sessionRecord{
		ID:           uuid.NewString(),
		SessionKey:   strings.TrimSpace(in.Key),
		UID:          strings.TrimSpace(in.Account.UID),
		Email:        strings.TrimSpace(in.Account.Email),
		DisplayName:  strings.TrimSpace(in.Account.DisplayName),
		IDToken:      in.IDToken,
		RefreshToken: in.RefreshToken,
		Status:       string(in.Status),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !in.ExpiresAt.IsZero() {
		expiresAt := in.ExpiresAt.UTC()
		record.ExpiresAt = &expiresAt
	}
	return record
}

func (r *sessionRecord) toDomain() core.SessionRecord {
	if r == nil {
		return core.SessionRecord{}
	}
	out := core.SessionRecord{
		ID:  r.ID,
		Key: r.SessionKey,
		Account: core.Account{
			UID:         r.UID,
			Email:       r.Email,
			DisplayName: r.DisplayName,
		},
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
		Status:       core.SessionStatus(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.ExpiresAt != nil {
		out.ExpiresAt = r.ExpiresAt.UTC()
	}
	return out
}
