package memory

import (
	"context"
	"math/big"
	"sync"

	"github.com/fitzies/pulseflow/pkg/domain"
	"github.com/fitzies/pulseflow/pkg/ports"
)

// Gas figures reported by the simulated chain. Deterministic so tests can
// assert guard behavior.
var (
	defaultGasPrice = big.NewInt(2_000_000_000) // 2 gwei
	gasUsedSwap     = big.NewInt(120_000)
	gasUsedLiq      = big.NewInt(180_000)
	gasUsedTransfer = big.NewInt(21_000)
)

type pool struct {
	tokenA   string // canonical (lexical) order
	tokenB   string
	reserveA *big.Int
	reserveB *big.Int
	total    *big.Int // total liquidity issued
}

// Chain is a deterministic, in-memory chain adapter simulating
// constant-product pools, balances, and run cancellation flags.
type Chain struct {
	mu        sync.Mutex
	balances  map[string]map[string]*big.Int // wallet -> token -> amount
	pools     map[string]*pool               // canonical pair key
	positions map[string]map[string]*big.Int // wallet -> pair key -> liquidity
	cancelled map[string]bool
	gasPrice  *big.Int
}

var _ ports.ChainAdapter = (*Chain)(nil)

// NewChain creates an empty simulated chain.
func NewChain() *Chain {
	return &Chain{
		balances:  make(map[string]map[string]*big.Int),
		pools:     make(map[string]*pool),
		positions: make(map[string]map[string]*big.Int),
		cancelled: make(map[string]bool),
		gasPrice:  defaultGasPrice,
	}
}

func pairKey(a, b string) (string, bool) {
	// Returns the canonical key and whether the arguments arrived in
	// canonical order.
	if a <= b {
		return a + "/" + b, true
	}
	return b + "/" + a, false
}

// SetBalance seeds a wallet's balance for a token (domain.NativeToken for the
// native coin).
func (c *Chain) SetBalance(wallet, token string, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.balances[wallet] == nil {
		c.balances[wallet] = make(map[string]*big.Int)
	}
	c.balances[wallet][token] = new(big.Int).Set(amount)
}

// AddPool seeds a pool with the given reserves.
func (c *Chain) AddPool(tokenA, tokenB string, reserveA, reserveB *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key, inOrder := pairKey(tokenA, tokenB)
	if !inOrder {
		tokenA, tokenB = tokenB, tokenA
		reserveA, reserveB = reserveB, reserveA
	}
	c.pools[key] = &pool{
		tokenA:   tokenA,
		tokenB:   tokenB,
		reserveA: new(big.Int).Set(reserveA),
		reserveB: new(big.Int).Set(reserveB),
		total:    new(big.Int).Sqrt(new(big.Int).Mul(reserveA, reserveB)),
	}
}

// SetGasPrice overrides the reported gas price.
func (c *Chain) SetGasPrice(price *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gasPrice = new(big.Int).Set(price)
}

// Cancel marks a run as cancelled. The engine observes it before the next
// node dispatch.
func (c *Chain) Cancel(ctx context.Context, runID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled[runID] = true
	return nil
}

// RunCancelled reports the cancellation flag for a run.
func (c *Chain) RunCancelled(ctx context.Context, runID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled[runID], nil
}

func (c *Chain) balance(wallet, token string) *big.Int {
	if c.balances[wallet] == nil {
		c.balances[wallet] = make(map[string]*big.Int)
	}
	if c.balances[wallet][token] == nil {
		c.balances[wallet][token] = new(big.Int)
	}
	return c.balances[wallet][token]
}

func (c *Chain) debit(wallet, token string, amount *big.Int) error {
	bal := c.balance(wallet, token)
	if bal.Cmp(amount) < 0 {
		return &domain.ChainError{Code: "INSUFFICIENT_FUNDS", Msg: "insufficient balance for " + token}
	}
	bal.Sub(bal, amount)
	return nil
}

func (c *Chain) credit(wallet, token string, amount *big.Int) {
	c.balance(wallet, token).Add(c.balance(wallet, token), amount)
}

// quote applies the constant-product rule out = reserveOut*in/(reserveIn+in).
func (p *pool) quote(tokenIn string, amountIn *big.Int) *big.Int {
	reserveIn, reserveOut := p.reserveA, p.reserveB
	if tokenIn == p.tokenB {
		reserveIn, reserveOut = p.reserveB, p.reserveA
	}
	out := new(big.Int).Mul(reserveOut, amountIn)
	return out.Quo(out, new(big.Int).Add(reserveIn, amountIn))
}

// QuoteSwap returns the expected swap output without executing it.
func (c *Chain) QuoteSwap(ctx context.Context, tokenIn, tokenOut string, amountIn *big.Int) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key, _ := pairKey(tokenIn, tokenOut)
	p, ok := c.pools[key]
	if !ok {
		return nil, &domain.ChainError{Code: "POOL_NOT_FOUND", Msg: "no pool between " + tokenIn + " and " + tokenOut}
	}
	return p.quote(tokenIn, amountIn), nil
}

// Swap executes a token exchange against the pool.
func (c *Chain) Swap(ctx context.Context, params ports.SwapParams) (ports.SwapResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, _ := pairKey(params.TokenIn, params.TokenOut)
	p, ok := c.pools[key]
	if !ok {
		return ports.SwapResult{}, &domain.ChainError{Code: "POOL_NOT_FOUND", Msg: "no pool between " + params.TokenIn + " and " + params.TokenOut}
	}

	out := p.quote(params.TokenIn, params.AmountIn)
	if params.MinAmountOut != nil && out.Cmp(params.MinAmountOut) < 0 {
		return ports.SwapResult{}, &domain.ChainError{
			Code:   "EXECUTION_REVERTED",
			Revert: "INSUFFICIENT_OUTPUT_AMOUNT",
			Msg:    "execution reverted",
		}
	}

	if err := c.debit(params.Wallet, params.TokenIn, params.AmountIn); err != nil {
		return ports.SwapResult{}, err
	}
	c.credit(params.Wallet, params.TokenOut, out)

	if params.TokenIn == p.tokenA {
		p.reserveA.Add(p.reserveA, params.AmountIn)
		p.reserveB.Sub(p.reserveB, out)
	} else {
		p.reserveB.Add(p.reserveB, params.AmountIn)
		p.reserveA.Sub(p.reserveA, out)
	}

	return ports.SwapResult{
		AmountOut: out,
		Receipt:   ports.TxReceipt{GasPrice: new(big.Int).Set(c.gasPrice), GasUsed: gasUsedSwap},
	}, nil
}

// AddLiquidity deposits both tokens and issues sqrt(a*b) liquidity.
func (c *Chain) AddLiquidity(ctx context.Context, params ports.LiquidityParams) (ports.LiquidityResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, _ := pairKey(params.TokenA, params.TokenB)
	p, ok := c.pools[key]
	if !ok {
		return ports.LiquidityResult{}, &domain.ChainError{Code: "POOL_NOT_FOUND", Msg: "no pool between " + params.TokenA + " and " + params.TokenB}
	}

	if err := c.debit(params.Wallet, params.TokenA, params.AmountA); err != nil {
		return ports.LiquidityResult{}, err
	}
	if err := c.debit(params.Wallet, params.TokenB, params.AmountB); err != nil {
		// Roll the first leg back so the simulation stays consistent.
		c.credit(params.Wallet, params.TokenA, params.AmountA)
		return ports.LiquidityResult{}, err
	}

	a, b := params.AmountA, params.AmountB
	if params.TokenA != p.tokenA {
		a, b = b, a
	}
	p.reserveA.Add(p.reserveA, a)
	p.reserveB.Add(p.reserveB, b)

	liquidity := new(big.Int).Sqrt(new(big.Int).Mul(params.AmountA, params.AmountB))
	p.total.Add(p.total, liquidity)

	if c.positions[params.Wallet] == nil {
		c.positions[params.Wallet] = make(map[string]*big.Int)
	}
	if c.positions[params.Wallet][key] == nil {
		c.positions[params.Wallet][key] = new(big.Int)
	}
	c.positions[params.Wallet][key].Add(c.positions[params.Wallet][key], liquidity)

	return ports.LiquidityResult{
		Liquidity: liquidity,
		AmountA:   new(big.Int).Set(params.AmountA),
		AmountB:   new(big.Int).Set(params.AmountB),
		Receipt:   ports.TxReceipt{GasPrice: new(big.Int).Set(c.gasPrice), GasUsed: gasUsedLiq},
	}, nil
}

// RemoveLiquidity burns a position and returns the proportional share of
// both reserves.
func (c *Chain) RemoveLiquidity(ctx context.Context, params ports.RemoveLiquidityParams) (ports.RemoveLiquidityResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, _ := pairKey(params.TokenA, params.TokenB)
	p, ok := c.pools[key]
	if !ok {
		return ports.RemoveLiquidityResult{}, &domain.ChainError{Code: "POOL_NOT_FOUND", Msg: "no pool between " + params.TokenA + " and " + params.TokenB}
	}

	position := new(big.Int)
	if c.positions[params.Wallet] != nil && c.positions[params.Wallet][key] != nil {
		position = c.positions[params.Wallet][key]
	}
	if position.Cmp(params.Liquidity) < 0 {
		return ports.RemoveLiquidityResult{}, &domain.ChainError{Code: "INSUFFICIENT_FUNDS", Msg: "insufficient liquidity position"}
	}

	outA := new(big.Int).Mul(p.reserveA, params.Liquidity)
	outA.Quo(outA, p.total)
	outB := new(big.Int).Mul(p.reserveB, params.Liquidity)
	outB.Quo(outB, p.total)

	p.reserveA.Sub(p.reserveA, outA)
	p.reserveB.Sub(p.reserveB, outB)
	p.total.Sub(p.total, params.Liquidity)
	position.Sub(position, params.Liquidity)

	c.credit(params.Wallet, p.tokenA, outA)
	c.credit(params.Wallet, p.tokenB, outB)

	// Report amounts in the caller's token order.
	if params.TokenA != p.tokenA {
		outA, outB = outB, outA
	}
	return ports.RemoveLiquidityResult{
		AmountA: outA,
		AmountB: outB,
		Receipt: ports.TxReceipt{GasPrice: new(big.Int).Set(c.gasPrice), GasUsed: gasUsedLiq},
	}, nil
}

// Transfer moves tokens from the wallet to an external address.
func (c *Chain) Transfer(ctx context.Context, params ports.TransferParams) (ports.TxReceipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.debit(params.Wallet, params.Token, params.Amount); err != nil {
		return ports.TxReceipt{}, err
	}
	c.credit(params.To, params.Token, params.Amount)

	return ports.TxReceipt{GasPrice: new(big.Int).Set(c.gasPrice), GasUsed: gasUsedTransfer}, nil
}

// Balance returns the wallet's native-coin balance.
func (c *Chain) Balance(ctx context.Context, wallet string) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.balance(wallet, domain.NativeToken)), nil
}

// TokenBalance returns the wallet's balance for a token.
func (c *Chain) TokenBalance(ctx context.Context, wallet, token string) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.balance(wallet, token)), nil
}

// PositionSize returns the wallet's liquidity in the given pool.
func (c *Chain) PositionSize(ctx context.Context, wallet, tokenA, tokenB string) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key, _ := pairKey(tokenA, tokenB)
	if c.positions[wallet] == nil || c.positions[wallet][key] == nil {
		return new(big.Int), nil
	}
	return new(big.Int).Set(c.positions[wallet][key]), nil
}

// PairReserves returns pool reserves in the caller's token order.
func (c *Chain) PairReserves(ctx context.Context, tokenA, tokenB string) (ports.ReservePair, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, inOrder := pairKey(tokenA, tokenB)
	p, ok := c.pools[key]
	if !ok {
		return ports.ReservePair{}, domain.ErrPoolNotFound
	}

	a := new(big.Int).Set(p.reserveA)
	b := new(big.Int).Set(p.reserveB)
	if !inOrder {
		a, b = b, a
	}
	return ports.ReservePair{ReserveA: a, ReserveB: b}, nil
}
