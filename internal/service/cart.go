package service

import (
	"context"
	"errors"
	"time"

	"gamestore-api/internal/metrics"
	"gamestore-api/internal/model"
	"gamestore-api/internal/repository"
	"gamestore-api/pkg/logger"
)

// CartService owns the NotOwned -> InCart -> Owned transitions of a buyer's games.
type CartService struct {
	repo repository.CartRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, log *logger.Logger) *CartService {
	return &CartService{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func requireBuyer(id model.Identity) error {
	if !id.IsBuyer() || id.ID <= 0 {
		return ErrForbidden
	}
	return nil
}

// GetOrCreateCart returns the buyer's cart id, creating an empty cart on first use.
func (s *CartService) GetOrCreateCart(ctx context.Context, id model.Identity) (int64, error) {
	if err := requireBuyer(id); err != nil {
		return 0, err
	}

	var cartID int64
	err := s.repo.WithinTx(ctx, func(tx repository.CartTx) error {
		var err error
		cartID, err = getOrCreateCart(ctx, tx, id.ID, s.now())
		return err
	})
	if err != nil {
		return 0, classify("get or create cart", err)
	}
	return cartID, nil
}

func getOrCreateCart(ctx context.Context, tx repository.CartTx, buyerID int64, at time.Time) (int64, error) {
	cartID, found, err := tx.FindCart(ctx, buyerID, false)
	if err != nil {
		return 0, err
	}
	if found {
		return cartID, nil
	}
	return tx.CreateCart(ctx, buyerID, at)
}

// AddGame stages a game in the buyer's cart. Ownership is checked before the
// cart is touched so an invalid add never creates an empty cart.
func (s *CartService) AddGame(ctx context.Context, id model.Identity, gameID int64) error {
	if err := requireBuyer(id); err != nil {
		return err
	}
	if gameID <= 0 {
		return validationError("invalid game id")
	}

	err := s.repo.WithinTx(ctx, func(tx repository.CartTx) error {
		exists, err := tx.GameExists(ctx, gameID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrGameNotFound
		}

		owned, err := tx.OwnsGame(ctx, id.ID, gameID)
		if err != nil {
			return err
		}
		if owned {
			return ErrAlreadyOwned
		}

		cartID, err := getOrCreateCart(ctx, tx, id.ID, s.now())
		if err != nil {
			return err
		}

		inCart, err := tx.CartHasGame(ctx, cartID, gameID)
		if err != nil {
			return err
		}
		if inCart {
			return ErrAlreadyInCart
		}

		return tx.InsertCartItem(ctx, cartID, gameID, s.now())
	})
	if err != nil {
		err = classify("add to cart", err)
		metrics.RecordCartMutation("add", outcome(err))
		return err
	}

	metrics.RecordCartMutation("add", "success")
	return nil
}

// RemoveGame drops a game from the buyer's cart. Removing a game that is not
// in the cart, or from a buyer with no cart, succeeds without change.
func (s *CartService) RemoveGame(ctx context.Context, id model.Identity, gameID int64) error {
	if err := requireBuyer(id); err != nil {
		return err
	}
	if gameID <= 0 {
		return validationError("invalid game id")
	}

	if _, err := s.repo.RemoveCartItem(ctx, id.ID, gameID); err != nil {
		metrics.RecordCartMutation("remove", "error")
		return storageError("remove from cart", err)
	}
	metrics.RecordCartMutation("remove", "success")
	return nil
}

// ListCart returns the games in the buyer's cart, empty if there is no cart.
func (s *CartService) ListCart(ctx context.Context, id model.Identity) ([]model.CartItem, error) {
	if err := requireBuyer(id); err != nil {
		return nil, err
	}
	items, err := s.repo.ListCart(ctx, id.ID)
	if err != nil {
		return nil, storageError("list cart", err)
	}
	return items, nil
}

// Library returns the games the buyer owns.
func (s *CartService) Library(ctx context.Context, id model.Identity) ([]model.LibraryEntry, error) {
	if err := requireBuyer(id); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListLibrary(ctx, id.ID)
	if err != nil {
		return nil, storageError("list library", err)
	}
	return entries, nil
}

// Checkout moves every game in the buyer's cart into their library and
// empties the cart, all in one transaction. Games already owned are skipped,
// so repeating a checkout never duplicates library entries. An empty or
// missing cart is a successful no-op.
func (s *CartService) Checkout(ctx context.Context, id model.Identity) (model.CheckoutResult, error) {
	if err := requireBuyer(id); err != nil {
		return model.CheckoutResult{}, err
	}

	var result model.CheckoutResult
	err := s.repo.WithinTx(ctx, func(tx repository.CartTx) error {
		cartID, found, err := tx.FindCart(ctx, id.ID, true)
		if err != nil || !found {
			return err
		}

		result.Purchased, err = tx.TransferCartToLibrary(ctx, cartID, s.now())
		if err != nil {
			return err
		}

		result.Cleared, err = tx.ClearCart(ctx, cartID)
		return err
	})
	if err != nil {
		s.log.Error("checkout failed", "buyer_id", id.ID, "error", err)
		metrics.RecordCheckout("error", 0)
		return model.CheckoutResult{}, storageError("checkout", err)
	}

	s.log.Info("checkout complete", "buyer_id", id.ID, "purchased", result.Purchased, "cleared", result.Cleared)
	metrics.RecordCheckout("success", result.Purchased)
	return result, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrAlreadyOwned), errors.Is(err, ErrAlreadyInCart):
		return "conflict"
	case errors.Is(err, ErrGameNotFound):
		return "not_found"
	default:
		return "error"
	}
}
