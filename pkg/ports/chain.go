package ports

import (
	"context"
	"math/big"
)

// TxReceipt carries the gas metadata every state-changing operation reports.
// Guard nodes read these figures from the previous node's output.
type TxReceipt struct {
	GasPrice *big.Int
	GasUsed  *big.Int
}

// SwapParams describes a token exchange with a precomputed slippage floor.
type SwapParams struct {
	Wallet       string
	TokenIn      string
	TokenOut     string
	AmountIn     *big.Int
	MinAmountOut *big.Int
}

// SwapResult is the outcome of a swap transaction.
type SwapResult struct {
	AmountOut *big.Int
	Receipt   TxReceipt
}

// LiquidityParams describes a two-sided pool deposit.
type LiquidityParams struct {
	Wallet  string
	TokenA  string
	TokenB  string
	AmountA *big.Int
	AmountB *big.Int
}

// LiquidityResult is the outcome of adding liquidity.
type LiquidityResult struct {
	Liquidity *big.Int
	AmountA   *big.Int
	AmountB   *big.Int
	Receipt   TxReceipt
}

// RemoveLiquidityParams describes burning a liquidity position.
type RemoveLiquidityParams struct {
	Wallet    string
	TokenA    string
	TokenB    string
	Liquidity *big.Int
}

// RemoveLiquidityResult is the outcome of removing liquidity.
type RemoveLiquidityResult struct {
	AmountA *big.Int
	AmountB *big.Int
	Receipt TxReceipt
}

// TransferParams describes sending tokens to an external address.
type TransferParams struct {
	Wallet string
	Token  string // domain.NativeToken for the native coin
	To     string
	Amount *big.Int
}

// ReservePair holds pool reserves in the same order as the tokens they were
// requested with: ReserveA corresponds to the first token argument.
type ReservePair struct {
	ReserveA *big.Int
	ReserveB *big.Int
}

// ChainAdapter performs the actual blockchain reads and writes for the
// engine. Implementations own signing, gas estimation, ABI encoding, and the
// serialization of the per-workflow signing key; the engine only hands over
// resolved integer amounts and addresses. All amounts are fixed-point
// integers with 18 implied decimals.
type ChainAdapter interface {
	Swap(ctx context.Context, p SwapParams) (SwapResult, error)
	AddLiquidity(ctx context.Context, p LiquidityParams) (LiquidityResult, error)
	RemoveLiquidity(ctx context.Context, p RemoveLiquidityParams) (RemoveLiquidityResult, error)
	Transfer(ctx context.Context, p TransferParams) (TxReceipt, error)

	// QuoteSwap returns the expected output of a swap without executing it.
	// The dispatcher derives the slippage floor from this figure.
	QuoteSwap(ctx context.Context, tokenIn, tokenOut string, amountIn *big.Int) (*big.Int, error)

	// Balance returns the wallet's native-coin balance; TokenBalance the
	// balance of a specific token.
	Balance(ctx context.Context, wallet string) (*big.Int, error)
	TokenBalance(ctx context.Context, wallet, token string) (*big.Int, error)

	// PositionSize returns the wallet's liquidity in the given pool.
	PositionSize(ctx context.Context, wallet, tokenA, tokenB string) (*big.Int, error)

	// PairReserves returns the reserves of the pool between two tokens, in
	// argument order. Returns domain.ErrPoolNotFound when no pool exists.
	PairReserves(ctx context.Context, tokenA, tokenB string) (ReservePair, error)

	// RunCancelled reports whether the given run has been marked cancelled
	// by the host. The engine polls this before dispatching each node.
	RunCancelled(ctx context.Context, runID string) (bool, error)
}
