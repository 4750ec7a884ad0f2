package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gamestore-api/internal/model"

	"github.com/jmoiron/sqlx"
)

// CreateAccount inserts a buyer or developer after checking that the username
// is free in both tables.
func (s *SQLStore) CreateAccount(ctx context.Context, account *model.Account) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	taken, err := usernameTaken(ctx, tx, account.Username)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, ErrUsernameTaken
	}

	createdAt := account.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var id int64
	switch account.Role {
	case model.RoleDeveloper:
		id, err = insertID(ctx, tx, s.dialect,
			`INSERT INTO developers (username, password_hash, email, studio_name, created_at) VALUES (?, ?, ?, ?, ?)`,
			account.Username, account.PasswordHash, account.Email, account.StudioName, createdAt)
	case model.RoleBuyer:
		id, err = insertID(ctx, tx, s.dialect,
			`INSERT INTO buyers (username, password_hash, email, created_at) VALUES (?, ?, ?, ?)`,
			account.Username, account.PasswordHash, account.Email, createdAt)
	default:
		return 0, fmt.Errorf("unknown role %q", account.Role)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert %s: %w", account.Role, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	account.ID = id
	account.CreatedAt = createdAt
	return id, nil
}

func usernameTaken(ctx context.Context, tx *sqlx.Tx, username string) (bool, error) {
	for _, table := range []string{"buyers", "developers"} {
		var n int
		err := tx.GetContext(ctx, &n, tx.Rebind("SELECT COUNT(*) FROM "+table+" WHERE username = ?"), username)
		if err != nil {
			return false, fmt.Errorf("failed to check username in %s: %w", table, err)
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}

// FindBuyer returns the buyer with the given username, or nil if absent.
func (s *SQLStore) FindBuyer(ctx context.Context, username string) (*model.Account, error) {
	var account model.Account
	err := s.db.GetContext(ctx, &account,
		s.db.Rebind(`SELECT id, username, password_hash, email FROM buyers WHERE username = ?`), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get buyer: %w", err)
	}
	account.Role = model.RoleBuyer
	return &account, nil
}

// FindDeveloper returns the developer with the given username, or nil if absent.
func (s *SQLStore) FindDeveloper(ctx context.Context, username string) (*model.Account, error) {
	var account model.Account
	err := s.db.GetContext(ctx, &account,
		s.db.Rebind(`SELECT id, username, password_hash, email, studio_name FROM developers WHERE username = ?`), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get developer: %w", err)
	}
	account.Role = model.RoleDeveloper
	return &account, nil
}
