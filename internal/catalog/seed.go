// Package catalog loads the initial game catalog from a YAML fixture file.
package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"gamestore-api/internal/model"

	"gopkg.in/yaml.v3"
)

// Seeder is the slice of the game repository the loader needs.
type Seeder interface {
	CountGames(ctx context.Context) (int64, error)
	InsertGames(ctx context.Context, games []model.Game) (int, error)
}

type seedFile struct {
	Games []model.Game `yaml:"games"`
}

// Parse decodes a seed document and checks every entry.
func Parse(r io.Reader) ([]model.Game, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc seedFile
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode catalog seed: %w", err)
	}

	for i, g := range doc.Games {
		if strings.TrimSpace(g.Title) == "" {
			return nil, fmt.Errorf("catalog seed entry %d: title is required", i)
		}
		if g.Price < 0 {
			return nil, fmt.Errorf("catalog seed entry %d (%s): price must not be negative", i, g.Title)
		}
	}
	return doc.Games, nil
}

// SeedFile inserts the games in path when the catalog is empty.
// It returns the number of games inserted; a non-empty catalog is left alone.
func SeedFile(ctx context.Context, repo Seeder, path string) (int, error) {
	existing, err := repo.CountGames(ctx)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open catalog seed: %w", err)
	}
	defer f.Close()

	games, err := Parse(f)
	if err != nil {
		return 0, err
	}
	return repo.InsertGames(ctx, games)
}
