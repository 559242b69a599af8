package sqlstore

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-attendance/core"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// SessionStore keeps at most one active session per key. Saving a new
// session revokes the previous active one in the same transaction.
type SessionStore struct {
	db   *bun.DB
	repo repository.Repository[*sessionRecord]
	now  func() time.Time
}

func NewSessionStore(db *bun.DB) (*SessionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*sessionRecord](db, sessionHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid session repository wiring: %w", err)
		}
	}
	return &SessionStore{
		db:   db,
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func NewSessionStoreFromPersistence(client any) (*SessionStore, error) {
	db, err := resolveBunDB(client)
	if err != nil {
		return nil, err
	}
	return NewSessionStore(db)
}

func (s *SessionStore) Save(ctx context.Context, in core.SessionRecord) (core.SessionRecord, error) {
	if s == nil || s.repo == nil || s.db == nil {
		return core.SessionRecord{}, fmt.Errorf("sqlstore: session store is not configured")
	}
	key := strings.TrimSpace(in.Key)
	if key == "" {
		return core.SessionRecord{}, fmt.Errorf("sqlstore: session key is required")
	}
	if strings.TrimSpace(in.RefreshToken) == "" {
		return core.SessionRecord{}, fmt.Errorf("sqlstore: refresh token is required")
	}
	if strings.TrimSpace(string(in.Status)) == "" {
		in.Status = core.SessionStatusActive
	}
	in.Key = key
	now := s.now()

	var saved core.SessionRecord
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if in.Status == core.SessionStatusActive {
			_, updateErr := tx.NewUpdate().
				Model((*sessionRecord)(nil)).
				Set("status = ?", string(core.SessionStatusRevoked)).
				Set("updated_at = ?", now).
				Where("session_key = ?", key).
				Where("status = ?", string(core.SessionStatusActive)).
				Exec(ctx)
			if updateErr != nil {
				return updateErr
			}
		}
		created, createErr := s.repo.CreateTx(ctx, tx, newSessionRecord(in, now))
		if createErr != nil {
			return createErr
		}
		saved = created.toDomain()
		return nil
	})
	if err != nil {
		return core.SessionRecord{}, err
	}
	return saved, nil
}

func (s *SessionStore) LoadActive(ctx context.Context, key string) (core.SessionRecord, error) {
	if s == nil || s.repo == nil {
		return core.SessionRecord{}, fmt.Errorf("sqlstore: session store is not configured")
	}
	trimmedKey := strings.TrimSpace(key)
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("session_key", "=", trimmedKey),
		repository.SelectBy("status", "=", string(core.SessionStatusActive)),
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.SessionRecord{}, err
	}
	if len(records) == 0 {
		return core.SessionRecord{}, goerrors.New(
			fmt.Sprintf("sqlstore: active session not found for key %q", trimmedKey),
			goerrors.CategoryNotFound,
		).
			WithCode(http.StatusNotFound).
			WithTextCode(core.ErrorNotFound)
	}
	return records[0].toDomain(), nil
}

func (s *SessionStore) Revoke(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: session store is not configured")
	}
	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return fmt.Errorf("sqlstore: session key is required")
	}
	_, err := s.db.NewUpdate().
		Model((*sessionRecord)(nil)).
		Set("status = ?", string(core.SessionStatusRevoked)).
		Set("updated_at = ?", s.now()).
		Where("session_key = ?", trimmedKey).
		Where("status = ?", string(core.SessionStatusActive)).
		Exec(ctx)
	return err
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
