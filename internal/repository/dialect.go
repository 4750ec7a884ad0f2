package repository

import "fmt"

// dialect captures the per-database differences in schema and statement shape.
// Statements are written with ? placeholders and rebound by sqlx.
type dialect struct {
	name   string
	driver string
	schema []string

	// returning is set when generated ids come back via RETURNING
	// instead of LastInsertId.
	returning bool
	// timestampParam is the placeholder expression used where a time value
	// appears in a SELECT list.
	timestampParam string
	// lockSuffix is appended to SELECTs that must hold the row.
	lockSuffix string
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return sqliteDialect, nil
	case "postgres", "postgresql":
		return postgresDialect, nil
	case "mysql":
		return mysqlDialect, nil
	default:
		return dialect{}, fmt.Errorf("unsupported store driver %q", driver)
	}
}

var sqliteDialect = dialect{
	name:           "sqlite",
	driver:         "sqlite",
	timestampParam: "?",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS buyers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			email TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS developers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			email TEXT NOT NULL,
			studio_name TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS games (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			price REAL NOT NULL DEFAULT 0,
			image TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_category ON games(category)`,
		`CREATE TABLE IF NOT EXISTS carts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			buyer_id INTEGER NOT NULL UNIQUE REFERENCES buyers(id),
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cart_items (
			cart_id INTEGER NOT NULL REFERENCES carts(id),
			game_id INTEGER NOT NULL REFERENCES games(id),
			added_at DATETIME NOT NULL,
			PRIMARY KEY (cart_id, game_id)
		)`,
		`CREATE TABLE IF NOT EXISTS library_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			buyer_id INTEGER NOT NULL REFERENCES buyers(id),
			game_id INTEGER NOT NULL REFERENCES games(id),
			purchased_at DATETIME NOT NULL,
			UNIQUE (buyer_id, game_id)
		)`,
	},
}

var postgresDialect = dialect{
	name:           "postgres",
	driver:         "postgres",
	returning:      true,
	timestampParam: "CAST(? AS TIMESTAMPTZ)",
	lockSuffix:     " FOR UPDATE",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS buyers (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			email TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS developers (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			email TEXT NOT NULL,
			studio_name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS games (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL DEFAULT 0,
			image TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_category ON games(category)`,
		`CREATE TABLE IF NOT EXISTS carts (
			id BIGSERIAL PRIMARY KEY,
			buyer_id BIGINT NOT NULL UNIQUE REFERENCES buyers(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS cart_items (
			cart_id BIGINT NOT NULL REFERENCES carts(id),
			game_id BIGINT NOT NULL REFERENCES games(id),
			added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (cart_id, game_id)
		)`,
		`CREATE TABLE IF NOT EXISTS library_entries (
			id BIGSERIAL PRIMARY KEY,
			buyer_id BIGINT NOT NULL REFERENCES buyers(id),
			game_id BIGINT NOT NULL REFERENCES games(id),
			purchased_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (buyer_id, game_id)
		)`,
	},
}

var mysqlDialect = dialect{
	name:           "mysql",
	driver:         "mysql",
	timestampParam: "?",
	lockSuffix:     " FOR UPDATE",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS buyers (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			created_at DATETIME(6) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS developers (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			studio_name VARCHAR(255) NOT NULL,
			created_at DATETIME(6) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS games (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			price DOUBLE NOT NULL DEFAULT 0,
			image VARCHAR(1024) NOT NULL DEFAULT '',
			description TEXT NOT NULL,
			category VARCHAR(255) NOT NULL DEFAULT '',
			INDEX idx_games_category (category)
		)`,
		`CREATE TABLE IF NOT EXISTS carts (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			buyer_id BIGINT NOT NULL UNIQUE,
			created_at DATETIME(6) NOT NULL,
			FOREIGN KEY (buyer_id) REFERENCES buyers(id)
		)`,
		`CREATE TABLE IF NOT EXISTS cart_items (
			cart_id BIGINT NOT NULL,
			game_id BIGINT NOT NULL,
			added_at DATETIME(6) NOT NULL,
			PRIMARY KEY (cart_id, game_id),
			FOREIGN KEY (cart_id) REFERENCES carts(id),
			FOREIGN KEY (game_id) REFERENCES games(id)
		)`,
		`CREATE TABLE IF NOT EXISTS library_entries (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			buyer_id BIGINT NOT NULL,
			game_id BIGINT NOT NULL,
			purchased_at DATETIME(6) NOT NULL,
			UNIQUE KEY uq_library_owner_game (buyer_id, game_id),
			FOREIGN KEY (buyer_id) REFERENCES buyers(id),
			FOREIGN KEY (game_id) REFERENCES games(id)
		)`,
	},
}
