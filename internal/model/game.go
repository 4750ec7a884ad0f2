package model

import "time"

// Game is a catalog record.
type Game struct {
	ID          int64   `json:"id" db:"id" yaml:"-"`
	Title       string  `json:"title" db:"title" yaml:"title"`
	Price       float64 `json:"price" db:"price" yaml:"price"`
	Image       string  `json:"image" db:"image" yaml:"image"`
	Description string  `json:"description" db:"description" yaml:"description"`
	Category    string  `json:"category" db:"category" yaml:"category"`
}

// GameFilter narrows a catalog search. Empty fields are ignored.
type GameFilter struct {
	Search   string `json:"search"`
	Category string `json:"category"`
}

// CartItem is a game currently staged in a buyer's cart.
type CartItem struct {
	GameID int64   `json:"game_id" db:"game_id"`
	Title  string  `json:"title" db:"title"`
	Price  float64 `json:"price" db:"price"`
	Image  string  `json:"image" db:"image"`
}

// LibraryEntry records a game owned by a buyer.
type LibraryEntry struct {
	GameID      int64     `json:"game_id" db:"game_id"`
	Title       string    `json:"title" db:"title"`
	Image       string    `json:"image" db:"image"`
	PurchasedAt time.Time `json:"purchased_at" db:"purchased_at"`
}

// CheckoutResult reports what a checkout moved.
type CheckoutResult struct {
	Purchased int64 `json:"purchased"`
	Cleared   int64 `json:"cleared"`
}
