package repository

import (
	"context"
	"errors"
	"time"

	"gamestore-api/internal/model"
)

// ErrUsernameTaken is returned by CreateAccount when the username exists in
// either the buyers or the developers table.
var ErrUsernameTaken = errors.New("username already taken")

// AccountRepository defines buyer/developer data access methods.
type AccountRepository interface {
	// CreateAccount checks joint username uniqueness and inserts the account
	// into the table matching its role, in one transaction.
	CreateAccount(ctx context.Context, account *model.Account) (int64, error)

	// FindBuyer returns the buyer with the given username, or nil if absent.
	FindBuyer(ctx context.Context, username string) (*model.Account, error)

	// FindDeveloper returns the developer with the given username, or nil if absent.
	FindDeveloper(ctx context.Context, username string) (*model.Account, error)
}

// GameRepository defines catalog data access methods.
type GameRepository interface {
	SearchGames(ctx context.Context, filter model.GameFilter) ([]model.Game, error)
	GetGame(ctx context.Context, id int64) (*model.Game, error)
	ListCategories(ctx context.Context) ([]string, error)
	InsertGames(ctx context.Context, games []model.Game) (int, error)
	CountGames(ctx context.Context) (int64, error)
}

// CartRepository defines cart and library data access methods.
// Multi-step mutations go through WithinTx.
type CartRepository interface {
	// WithinTx runs fn inside a store transaction. The transaction is
	// committed if fn returns nil and rolled back otherwise.
	WithinTx(ctx context.Context, fn func(tx CartTx) error) error

	ListCart(ctx context.Context, buyerID int64) ([]model.CartItem, error)
	RemoveCartItem(ctx context.Context, buyerID, gameID int64) (int64, error)
	ListLibrary(ctx context.Context, buyerID int64) ([]model.LibraryEntry, error)
}

// CartTx is the set of statements available inside a cart transaction.
type CartTx interface {
	GameExists(ctx context.Context, gameID int64) (bool, error)
	OwnsGame(ctx context.Context, buyerID, gameID int64) (bool, error)

	// FindCart returns the buyer's cart id. With lock set, the row is held
	// for the rest of the transaction on stores that support row locks.
	FindCart(ctx context.Context, buyerID int64, lock bool) (int64, bool, error)
	CreateCart(ctx context.Context, buyerID int64, at time.Time) (int64, error)

	CartHasGame(ctx context.Context, cartID, gameID int64) (bool, error)
	InsertCartItem(ctx context.Context, cartID, gameID int64, at time.Time) error

	// TransferCartToLibrary copies every item of the cart into the owner's
	// library, skipping games the owner already has.
	TransferCartToLibrary(ctx context.Context, cartID int64, at time.Time) (int64, error)
	ClearCart(ctx context.Context, cartID int64) (int64, error)
}

// StatsRepository exposes store health and counters for the admin endpoints.
type StatsRepository interface {
	Ping(ctx context.Context) error
	GetStats(ctx context.Context) (map[string]interface{}, error)
}
