package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gamestore-api/internal/model"
)

const gameColumns = `id, title, price, image, description, category`

// SearchGames lists games matching the filter. Title matching uses LIKE, so
// case sensitivity follows the store's collation.
func (s *SQLStore) SearchGames(ctx context.Context, filter model.GameFilter) ([]model.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE 1=1`
	var args []interface{}

	if filter.Search != "" {
		query += ` AND title LIKE ?`
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY id`

	games := []model.Game{}
	if err := s.db.SelectContext(ctx, &games, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to search games: %w", err)
	}
	return games, nil
}

// GetGame returns the game with the given id, or nil if absent.
func (s *SQLStore) GetGame(ctx context.Context, id int64) (*model.Game, error) {
	var game model.Game
	err := s.db.GetContext(ctx, &game, s.db.Rebind(`SELECT `+gameColumns+` FROM games WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return &game, nil
}

// ListCategories returns the distinct non-empty categories in the catalog.
func (s *SQLStore) ListCategories(ctx context.Context) ([]string, error) {
	categories := []string{}
	err := s.db.SelectContext(ctx, &categories,
		`SELECT DISTINCT category FROM games WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// InsertGames adds catalog records in one transaction and returns how many were written.
func (s *SQLStore) InsertGames(ctx context.Context, games []model.Game) (int, error) {
	if len(games) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(
		`INSERT INTO games (title, price, image, description, category) VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, g := range games {
		if _, err := stmt.ExecContext(ctx, g.Title, g.Price, g.Image, g.Description, g.Category); err != nil {
			return 0, fmt.Errorf("failed to insert game %q: %w", g.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(games), nil
}

// CountGames returns the number of catalog records.
func (s *SQLStore) CountGames(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM games`); err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}
	return n, nil
}
