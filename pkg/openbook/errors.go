package openbook

import (
	"errors"

	"github.com/jadestone-web3/serum-dex-from-zero/pkg/openbook/ledger"
)

var (
	// ErrMarketNotFound is returned by registry operations addressing a
	// market name that was never created.
	ErrMarketNotFound = errors.New("market not found")

	// ErrInsufficientBalance aborts order placement when the required
	// reservation exceeds the owner's available funds. No state changes.
	ErrInsufficientBalance = ledger.ErrInsufficientBalance

	// ErrInvalidOrder rejects orders with a zero price or quantity.
	ErrInvalidOrder = errors.New("order price and quantity must be positive")
)
