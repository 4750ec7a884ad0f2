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

// WithinTx runs fn inside a transaction, rolling back on any error.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(tx CartTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlCartTx{tx: tx, dialect: s.dialect}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListCart joins the buyer's cart items to the catalog.
func (s *SQLStore) ListCart(ctx context.Context, buyerID int64) ([]model.CartItem, error) {
	items := []model.CartItem{}
	err := s.db.SelectContext(ctx, &items, s.db.Rebind(`
		SELECT g.id AS game_id, g.title, g.price, g.image
		FROM cart_items ci
		JOIN carts c ON ci.cart_id = c.id
		JOIN games g ON ci.game_id = g.id
		WHERE c.buyer_id = ?
		ORDER BY ci.added_at, g.id`), buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	return items, nil
}

// RemoveCartItem deletes the game from the buyer's cart if present.
func (s *SQLStore) RemoveCartItem(ctx context.Context, buyerID, gameID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		DELETE FROM cart_items
		WHERE game_id = ? AND cart_id IN (SELECT id FROM carts WHERE buyer_id = ?)`), gameID, buyerID)
	if err != nil {
		return 0, fmt.Errorf("failed to remove cart item: %w", err)
	}
	return res.RowsAffected()
}

// ListLibrary returns the buyer's owned games, oldest purchase first.
func (s *SQLStore) ListLibrary(ctx context.Context, buyerID int64) ([]model.LibraryEntry, error) {
	entries := []model.LibraryEntry{}
	err := s.db.SelectContext(ctx, &entries, s.db.Rebind(`
		SELECT l.game_id, g.title, g.image, l.purchased_at
		FROM library_entries l
		JOIN games g ON l.game_id = g.id
		WHERE l.buyer_id = ?
		ORDER BY l.purchased_at, l.id`), buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list library: %w", err)
	}
	return entries, nil
}

// sqlCartTx implements CartTx on a single sqlx transaction.
type sqlCartTx struct {
	tx      *sqlx.Tx
	dialect dialect
}

func (t *sqlCartTx) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var n int
	if err := t.tx.GetContext(ctx, &n, t.tx.Rebind(query), args...); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t *sqlCartTx) GameExists(ctx context.Context, gameID int64) (bool, error) {
	ok, err := t.exists(ctx, `SELECT COUNT(*) FROM games WHERE id = ?`, gameID)
	if err != nil {
		return false, fmt.Errorf("failed to check game: %w", err)
	}
	return ok, nil
}

func (t *sqlCartTx) OwnsGame(ctx context.Context, buyerID, gameID int64) (bool, error) {
	ok, err := t.exists(ctx, `SELECT COUNT(*) FROM library_entries WHERE buyer_id = ? AND game_id = ?`, buyerID, gameID)
	if err != nil {
		return false, fmt.Errorf("failed to check library: %w", err)
	}
	return ok, nil
}

func (t *sqlCartTx) FindCart(ctx context.Context, buyerID int64, lock bool) (int64, bool, error) {
	query := `SELECT id FROM carts WHERE buyer_id = ?`
	if lock {
		query += t.dialect.lockSuffix
	}

	var id int64
	err := t.tx.GetContext(ctx, &id, t.tx.Rebind(query), buyerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get cart: %w", err)
	}
	return id, true, nil
}

func (t *sqlCartTx) CreateCart(ctx context.Context, buyerID int64, at time.Time) (int64, error) {
	id, err := insertID(ctx, t.tx, t.dialect,
		`INSERT INTO carts (buyer_id, created_at) VALUES (?, ?)`, buyerID, at)
	if err != nil {
		return 0, fmt.Errorf("failed to create cart: %w", err)
	}
	return id, nil
}

func (t *sqlCartTx) CartHasGame(ctx context.Context, cartID, gameID int64) (bool, error) {
	ok, err := t.exists(ctx, `SELECT COUNT(*) FROM cart_items WHERE cart_id = ? AND game_id = ?`, cartID, gameID)
	if err != nil {
		return false, fmt.Errorf("failed to check cart: %w", err)
	}
	return ok, nil
}

func (t *sqlCartTx) InsertCartItem(ctx context.Context, cartID, gameID int64, at time.Time) error {
	_, err := t.tx.ExecContext(ctx, t.tx.Rebind(
		`INSERT INTO cart_items (cart_id, game_id, added_at) VALUES (?, ?, ?)`), cartID, gameID, at)
	if err != nil {
		return fmt.Errorf("failed to insert cart item: %w", err)
	}
	return nil
}

func (t *sqlCartTx) TransferCartToLibrary(ctx context.Context, cartID int64, at time.Time) (int64, error) {
	query := `
		INSERT INTO library_entries (buyer_id, game_id, purchased_at)
		SELECT c.buyer_id, ci.game_id, ` + t.dialect.timestampParam + `
		FROM cart_items ci
		JOIN carts c ON ci.cart_id = c.id
		WHERE c.id = ?
		  AND NOT EXISTS (
			SELECT 1 FROM library_entries l
			WHERE l.buyer_id = c.buyer_id AND l.game_id = ci.game_id
		  )`

	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(query), at, cartID)
	if err != nil {
		return 0, fmt.Errorf("failed to transfer cart to library: %w", err)
	}
	return res.RowsAffected()
}

func (t *sqlCartTx) ClearCart(ctx context.Context, cartID int64) (int64, error) {
	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(`DELETE FROM cart_items WHERE cart_id = ?`), cartID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}
	return res.RowsAffected()
}

var _ CartTx = (*sqlCartTx)(nil)
