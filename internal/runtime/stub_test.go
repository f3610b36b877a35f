package runtime

import (
	"context"
	"math/big"

	"github.com/fitzies/pulseflow/pkg/domain"
	"github.com/fitzies/pulseflow/pkg/ports"
)

// stubChain is a scriptable chain adapter for engine and dispatcher tests.
// Zero values behave like an empty chain; individual funcs override behavior
// per test.
type stubChain struct {
	balances  map[string]*big.Int // token -> balance, wallet ignored
	reserves  map[string]ports.ReservePair
	cancelled bool

	swapFn     func(ctx context.Context, params ports.SwapParams) (ports.SwapResult, error)
	transferFn func(ctx context.Context, params ports.TransferParams) (ports.TxReceipt, error)
	quoteFn    func(ctx context.Context, tokenIn, tokenOut string, amountIn *big.Int) (*big.Int, error)

	swaps     []ports.SwapParams
	transfers []ports.TransferParams
}

func newStubChain() *stubChain {
	return &stubChain{
		balances: make(map[string]*big.Int),
		reserves: make(map[string]ports.ReservePair),
	}
}

func (s *stubChain) setBalance(token, amount string) {
	v, _ := new(big.Int).SetString(amount, 10)
	s.balances[token] = v
}

func (s *stubChain) setReserves(tokenA, tokenB, reserveA, reserveB string) {
	a, _ := new(big.Int).SetString(reserveA, 10)
	b, _ := new(big.Int).SetString(reserveB, 10)
	s.reserves[tokenA+"/"+tokenB] = ports.ReservePair{ReserveA: a, ReserveB: b}
}

func (s *stubChain) Swap(ctx context.Context, params ports.SwapParams) (ports.SwapResult, error) {
	s.swaps = append(s.swaps, params)
	if s.swapFn != nil {
		return s.swapFn(ctx, params)
	}
	return ports.SwapResult{
		AmountOut: new(big.Int).Set(params.AmountIn),
		Receipt:   ports.TxReceipt{GasPrice: big.NewInt(1), GasUsed: big.NewInt(21000)},
	}, nil
}

func (s *stubChain) QuoteSwap(ctx context.Context, tokenIn, tokenOut string, amountIn *big.Int) (*big.Int, error) {
	if s.quoteFn != nil {
		return s.quoteFn(ctx, tokenIn, tokenOut, amountIn)
	}
	return new(big.Int).Set(amountIn), nil
}

func (s *stubChain) AddLiquidity(ctx context.Context, params ports.LiquidityParams) (ports.LiquidityResult, error) {
	return ports.LiquidityResult{
		Liquidity: big.NewInt(1),
		AmountA:   params.AmountA,
		AmountB:   params.AmountB,
		Receipt:   ports.TxReceipt{GasPrice: big.NewInt(1), GasUsed: big.NewInt(180000)},
	}, nil
}

func (s *stubChain) RemoveLiquidity(ctx context.Context, params ports.RemoveLiquidityParams) (ports.RemoveLiquidityResult, error) {
	return ports.RemoveLiquidityResult{
		AmountA: big.NewInt(1),
		AmountB: big.NewInt(1),
		Receipt: ports.TxReceipt{GasPrice: big.NewInt(1), GasUsed: big.NewInt(180000)},
	}, nil
}

func (s *stubChain) Transfer(ctx context.Context, params ports.TransferParams) (ports.TxReceipt, error) {
	s.transfers = append(s.transfers, params)
	if s.transferFn != nil {
		return s.transferFn(ctx, params)
	}
	return ports.TxReceipt{GasPrice: big.NewInt(1), GasUsed: big.NewInt(21000)}, nil
}

func (s *stubChain) Balance(ctx context.Context, wallet string) (*big.Int, error) {
	if v, ok := s.balances[domain.NativeToken]; ok {
		return v, nil
	}
	return big.NewInt(0), nil
}

func (s *stubChain) TokenBalance(ctx context.Context, wallet, token string) (*big.Int, error) {
	if v, ok := s.balances[token]; ok {
		return v, nil
	}
	return big.NewInt(0), nil
}

func (s *stubChain) PositionSize(ctx context.Context, wallet, tokenA, tokenB string) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (s *stubChain) PairReserves(ctx context.Context, tokenA, tokenB string) (ports.ReservePair, error) {
	if r, ok := s.reserves[tokenA+"/"+tokenB]; ok {
		return r, nil
	}
	if r, ok := s.reserves[tokenB+"/"+tokenA]; ok {
		return ports.ReservePair{ReserveA: r.ReserveB, ReserveB: r.ReserveA}, nil
	}
	return ports.ReservePair{}, domain.ErrPoolNotFound
}

func (s *stubChain) RunCancelled(ctx context.Context, runID string) (bool, error) {
	return s.cancelled, nil
}

var _ ports.ChainAdapter = (*stubChain)(nil)
