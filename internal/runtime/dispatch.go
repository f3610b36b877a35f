package runtime

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/fitzies/pulseflow/pkg/domain"
	"github.com/fitzies/pulseflow/pkg/ports"
)

const (
	// maxLoopIterations bounds whole-chain restarts declared by a loop node.
	maxLoopIterations = 3
	// maxDelaySeconds bounds the pause a delay node may request.
	maxDelaySeconds = 60
	// slippageScale is the basis-point denominator for the swap floor.
	slippageScale = 10000
)

// dispatcher runs a single node: it decodes the node's configuration,
// resolves amount descriptors, derives safety parameters, invokes the chain
// adapter, and normalizes the result into the node type's output schema.
type dispatcher struct {
	chain    ports.ChainAdapter
	resolver *resolver

	// sleep is swappable so delay nodes don't stall tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func newDispatcher(chain ports.ChainAdapter) *dispatcher {
	return &dispatcher{
		chain:    chain,
		resolver: &resolver{chain: chain},
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// execute dispatches one node and returns its normalized output along with
// the context updated per the immutable-threading discipline.
func (d *dispatcher) execute(ctx context.Context, node *domain.Node, wallet string, ectx domain.ExecutionContext) (domain.NodeOutput, domain.ExecutionContext, error) {
	var (
		out domain.NodeOutput
		err error
	)

	switch node.Type {
	case domain.NodeTypeSwap:
		out, err = d.executeSwap(ctx, node, wallet, ectx)
	case domain.NodeTypeLiquidityAdd:
		out, err = d.executeLiquidityAdd(ctx, node, wallet, ectx)
	case domain.NodeTypeLiquidityRemove:
		out, err = d.executeLiquidityRemove(ctx, node, wallet, ectx)
	case domain.NodeTypeTransfer:
		out, err = d.executeTransfer(ctx, node, wallet, ectx)
	case domain.NodeTypeBalanceCheck:
		out, err = d.executeBalanceCheck(ctx, node, wallet)
	case domain.NodeTypeCondition:
		out, err = d.executeCondition(ctx, node, wallet, ectx)
	case domain.NodeTypeLoop:
		out, err = d.executeLoop(node)
	case domain.NodeTypeDelay:
		out, err = d.executeDelay(ctx, node)
	case domain.NodeTypeGasGuard:
		out, err = d.executeGasGuard(node, ectx)
	case domain.NodeTypeSetVariable:
		return d.executeSetVariable(ctx, node, ectx)
	default:
		err = &domain.ParsedError{
			Category: domain.ErrorConfig,
			Message:  fmt.Sprintf("Unsupported step type %q.", node.Type),
			Detail:   fmt.Sprintf("node %s has unknown type %q", node.ID, node.Type),
		}
	}

	if err != nil {
		return nil, ectx, err
	}
	return out, ectx.WithOutput(node.ID, node.Type, out), nil
}

type swapConfig struct {
	TokenIn  string                  `mapstructure:"tokenIn"`
	TokenOut string                  `mapstructure:"tokenOut"`
	AmountIn domain.AmountDescriptor `mapstructure:"amountIn"`
	Slippage float64                 `mapstructure:"slippage"` // fraction, e.g. 0.01 for 1%
}

func (d *dispatcher) executeSwap(ctx context.Context, node *domain.Node, wallet string, ectx domain.ExecutionContext) (domain.NodeOutput, error) {
	var cfg swapConfig
	if err := decodeConfig(node, &cfg); err != nil {
		return nil, err
	}

	amountIn, err := d.resolveField(ctx, "amountIn", cfg.AmountIn, node.Config, ectx)
	if err != nil {
		return nil, err
	}

	expected, err := d.chain.QuoteSwap(ctx, cfg.TokenIn, cfg.TokenOut, amountIn)
	if err != nil {
		return nil, err
	}
	minOut := slippageFloor(expected, cfg.Slippage)

	res, err := d.chain.Swap(ctx, ports.SwapParams{
		Wallet:       wallet,
		TokenIn:      cfg.TokenIn,
		TokenOut:     cfg.TokenOut,
		AmountIn:     amountIn,
		MinAmountOut: minOut,
	})
	if err != nil {
		return nil, err
	}

	return domain.NodeOutput{
		"amountIn":  amountIn,
		"amountOut": res.AmountOut,
		"gasPrice":  res.Receipt.GasPrice,
		"gasUsed":   res.Receipt.GasUsed,
	}, nil
}

// slippageFloor computes expected * (1 - slippage) in integer basis points,
// keeping floating point out of the guarded path.
func slippageFloor(expected *big.Int, slippage float64) *big.Int {
	// Round the widening: 0.29*10000 is 2899.999... in float64 and
	// truncation would tighten the floor by a basis point.
	bps := int64(math.Round(slippage * slippageScale))
	if bps < 0 {
		bps = 0
	}
	if bps > slippageScale {
		bps = slippageScale
	}
	out := new(big.Int).Mul(expected, big.NewInt(slippageScale-bps))
	return out.Quo(out, big.NewInt(slippageScale))
}

type liquidityAddConfig struct {
	TokenA  string                  `mapstructure:"tokenA"`
	TokenB  string                  `mapstructure:"tokenB"`
	AmountA domain.AmountDescriptor `mapstructure:"amountA"`
	AmountB domain.AmountDescriptor `mapstructure:"amountB"`
}

func (d *dispatcher) executeLiquidityAdd(ctx context.Context, node *domain.Node, wallet string, ectx domain.ExecutionContext) (domain.NodeOutput, error) {
	var cfg liquidityAddConfig
	if err := decodeConfig(node, &cfg); err != nil {
		return nil, err
	}

	amountA, err := d.resolveField(ctx, "amountA", cfg.AmountA, node.Config, ectx)
	if err != nil {
		return nil, err
	}
	amountB, err := d.resolveField(ctx, "amountB", cfg.AmountB, node.Config, ectx)
	if err != nil {
		return nil, err
	}

	res, err := d.chain.AddLiquidity(ctx, ports.LiquidityParams{
		Wallet:  wallet,
		TokenA:  cfg.TokenA,
		TokenB:  cfg.TokenB,
		AmountA: amountA,
		AmountB: amountB,
	})
	if err != nil {
		return nil, err
	}

	return domain.NodeOutput{
		"liquidity": res.Liquidity,
		"amountA":   res.AmountA,
		"amountB":   res.AmountB,
		"gasPrice":  res.Receipt.GasPrice,
		"gasUsed":   res.Receipt.GasUsed,
	}, nil
}

type liquidityRemoveConfig struct {
	TokenA    string                  `mapstructure:"tokenA"`
	TokenB    string                  `mapstructure:"tokenB"`
	Liquidity domain.AmountDescriptor `mapstructure:"liquidity"`
}

func (d *dispatcher) executeLiquidityRemove(ctx context.Context, node *domain.Node, wallet string, ectx domain.ExecutionContext) (domain.NodeOutput, error) {
	var cfg liquidityRemoveConfig
	if err := decodeConfig(node, &cfg); err != nil {
		return nil, err
	}

	liquidity, err := d.resolveField(ctx, "liquidity", cfg.Liquidity, node.Config, ectx)
	if err != nil {
		return nil, err
	}

	res, err := d.chain.RemoveLiquidity(ctx, ports.RemoveLiquidityParams{
		Wallet:    wallet,
		TokenA:    cfg.TokenA,
		TokenB:    cfg.TokenB,
		Liquidity: liquidity,
	})
	if err != nil {
		return nil, err
	}

	return domain.NodeOutput{
		"amountA":  res.AmountA,
		"amountB":  res.AmountB,
		"gasPrice": res.Receipt.GasPrice,
		"gasUsed":  res.Receipt.GasUsed,
	}, nil
}

type transferConfig struct {
	Token  string                  `mapstructure:"token"`
	To     string                  `mapstructure:"to"`
	Amount domain.AmountDescriptor `mapstructure:"amount"`
}

func (d *dispatcher) executeTransfer(ctx context.Context, node *domain.Node, wallet string, ectx domain.ExecutionContext) (domain.NodeOutput, error) {
	var cfg transferConfig
	if err := decodeConfig(node, &cfg); err != nil {
		return nil, err
	}

	amount, err := d.resolveField(ctx, "amount", cfg.Amount, node.Config, ectx)
	if err != nil {
		return nil, err
	}

	token := cfg.Token
	if token == "" {
		token = domain.NativeToken
	}

	receipt, err := d.chain.Transfer(ctx, ports.TransferParams{
		Wallet: wallet,
		Token:  token,
		To:     cfg.To,
		Amount: amount,
	})
	if err != nil {
		return nil, err
	}

	// Transfers have no semantically meaningful output beyond gas metadata.
	return domain.NodeOutput{
		"gasPrice": receipt.GasPrice,
		"gasUsed":  receipt.GasUsed,
	}, nil
}

type balanceCheckConfig struct {
	Token string `mapstructure:"token"`
}

func (d *dispatcher) executeBalanceCheck(ctx context.Context, node *domain.Node, wallet string) (domain.NodeOutput, error) {
	var cfg balanceCheckConfig
	if err := decodeConfig(node, &cfg); err != nil {
		return nil, err
	}

	var (
		balance *big.Int
		err     error
	)
	if cfg.Token == "" || cfg.Token == domain.NativeToken {
		balance, err = d.chain.Balance(ctx, wallet)
	} else {
		balance, err = d.chain.TokenBalance(ctx, wallet, cfg.Token)
	}
	if err != nil {
		return nil, err
	}

	return domain.NodeOutput{"balance": balance}, nil
}

// Condition operand sources.
const (
	operandBalance        = "balance"
	operandTokenBalance   = "token_balance"
	operandPosition       = "position"
	operandPreviousOutput = "previous_output"
)

type conditionConfig struct {
	Source    string                  `mapstructure:"source"`
	Token     string                  `mapstructure:"token"`
	TokenA    string                  `mapstructure:"tokenA"`
	TokenB    string                  `mapstructure:"tokenB"`
	Field     string                  `mapstructure:"field"`
	Operator  string                  `mapstructure:"operator"`
	Threshold domain.AmountDescriptor `mapstructure:"threshold"`
}

// executeCondition evaluates the comparison and reports which branch was
// selected. Following the selected edge is the traversal engine's job.
func (d *dispatcher) executeCondition(ctx context.Context, node *domain.Node, wallet string, ectx domain.ExecutionContext) (domain.NodeOutput, error) {
	var cfg conditionConfig
	if err := decodeConfig(node, &cfg); err != nil {
		return nil, err
	}

	left, err := d.conditionOperand(ctx, cfg, wallet, ectx)
	if err != nil {
		return nil, err
	}
	right, err := d.resolveField(ctx, "threshold", cfg.Threshold, node.Config, ectx)
	if err != nil {
		return nil, err
	}

	result, err := compare(left, right, cfg.Operator)
	if err != nil {
		return nil, err
	}

	branch := domain.BranchFalse
	if result {
		branch = domain.BranchTrue
	}

	return domain.NodeOutput{
		"branch":   branch,
		"left":     left,
		"right":    right,
		"operator": cfg.Operator,
	}, nil
}

func (d *dispatcher) conditionOperand(ctx context.Context, cfg conditionConfig, wallet string, ectx domain.ExecutionContext) (*big.Int, error) {
	switch cfg.Source {
	case operandBalance, "":
		return d.chain.Balance(ctx, wallet)
	case operandTokenBalance:
		return d.chain.TokenBalance(ctx, wallet, cfg.Token)
	case operandPosition:
		return d.chain.PositionSize(ctx, wallet, cfg.TokenA, cfg.TokenB)
	case operandPreviousOutput:
		return d.resolveField(ctx, "field", domain.AmountDescriptor{
			Type:       domain.AmountPreviousOutput,
			Field:      cfg.Field,
			Percentage: 100,
		}, nil, ectx)
	default:
		return nil, &domain.ParsedError{
			Category: domain.ErrorConfig,
			Message:  fmt.Sprintf("Unknown condition source %q.", cfg.Source),
			Detail:   fmt.Sprintf("condition source %q", cfg.Source),
		}
	}
}

func compare(left, right *big.Int, operator string) (bool, error) {
	cmp := left.Cmp(right)
	switch operator {
	case ">":
		return cmp > 0, nil
	case "<":
		return cmp < 0, nil
	case ">=":
		return cmp >= 0, nil
	case "<=":
		return cmp <= 0, nil
	case "==":
		return cmp == 0, nil
	default:
		return false, &domain.ParsedError{
			Category: domain.ErrorConfig,
			Message:  fmt.Sprintf("Unknown comparison operator %q.", operator),
			Detail:   fmt.Sprintf("condition operator %q", operator),
		}
	}
}

type loopConfig struct {
	Iterations int `mapstructure:"iterations"`
}

// executeLoop performs no operation; it emits the declared repeat count,
// clamped, for the traversal engine's restart decision.
func (d *dispatcher) executeLoop(node *domain.Node) (domain.NodeOutput, error) {
	var cfg loopConfig
	if err := decodeConfig(node, &cfg); err != nil {
		return nil, err
	}

	iterations := cfg.Iterations
	if iterations < 1 {
		iterations = 1
	}
	if iterations > maxLoopIterations {
		iterations = maxLoopIterations
	}

	return domain.NodeOutput{"iterations": iterations}, nil
}

type delayConfig struct {
	Seconds int `mapstructure:"seconds"`
}

// executeDelay is the only node type that deliberately blocks without
// external I/O.
func (d *dispatcher) executeDelay(ctx context.Context, node *domain.Node) (domain.NodeOutput, error) {
	var cfg delayConfig
	if err := decodeConfig(node, &cfg); err != nil {
		return nil, err
	}

	seconds := cfg.Seconds
	if seconds < 1 {
		seconds = 1
	}
	if seconds > maxDelaySeconds {
		seconds = maxDelaySeconds
	}

	if err := d.sleep(ctx, time.Duration(seconds)*time.Second); err != nil {
		return nil, err
	}
	return domain.NodeOutput{"seconds": seconds}, nil
}

type gasGuardConfig struct {
	Field       string `mapstructure:"field"`
	MaxGasPrice string `mapstructure:"maxGasPrice"`
}

// executeGasGuard reads a numeric field from the previous node's output and
// fails the whole chain if it exceeds the configured ceiling. It performs no
// on-chain action itself.
func (d *dispatcher) executeGasGuard(node *domain.Node, ectx domain.ExecutionContext) (domain.NodeOutput, error) {
	var cfg gasGuardConfig
	if err := decodeConfig(node, &cfg); err != nil {
		return nil, err
	}

	field := cfg.Field
	if field == "" {
		field = "gasPrice"
	}

	ceiling, err := domain.ParseAmount(cfg.MaxGasPrice)
	if err != nil {
		return nil, &domain.ResolutionError{Kind: domain.AmountStatic, Field: "maxGasPrice", Reason: err.Error()}
	}

	prev := ectx.PreviousOutput()
	if prev == nil {
		return nil, &domain.ResolutionError{Kind: domain.AmountPreviousOutput, Field: field, Reason: "no node has completed before the guard"}
	}
	raw, ok := prev[field]
	if !ok {
		return nil, &domain.ResolutionError{
			Kind:   domain.AmountPreviousOutput,
			Field:  field,
			Reason: fmt.Sprintf("previous node %s produced no field %q", ectx.PreviousNodeID, field),
		}
	}
	value, err := toBigInt(raw)
	if err != nil {
		return nil, &domain.ResolutionError{Kind: domain.AmountPreviousOutput, Field: field, Reason: err.Error()}
	}

	if value.Cmp(ceiling) > 0 {
		return nil, &domain.GuardError{
			NodeID:    node.ID,
			Field:     field,
			Value:     value.String(),
			Threshold: ceiling.String(),
		}
	}

	return domain.NodeOutput{
		"checked": field,
		"value":   value,
		"ceiling": ceiling,
	}, nil
}

type setVariableConfig struct {
	Name  string                  `mapstructure:"name"`
	Value domain.AmountDescriptor `mapstructure:"value"`
}

func (d *dispatcher) executeSetVariable(ctx context.Context, node *domain.Node, ectx domain.ExecutionContext) (domain.NodeOutput, domain.ExecutionContext, error) {
	var cfg setVariableConfig
	if err := decodeConfig(node, &cfg); err != nil {
		return nil, ectx, err
	}
	if cfg.Name == "" {
		return nil, ectx, &domain.ParsedError{
			Category: domain.ErrorConfig,
			Message:  "A variable step is missing its name.",
			Detail:   fmt.Sprintf("set_variable node %s has no name", node.ID),
		}
	}

	value, err := d.resolveField(ctx, "value", cfg.Value, node.Config, ectx)
	if err != nil {
		return nil, ectx, err
	}

	out := domain.NodeOutput{"name": cfg.Name, "value": value}
	next := ectx.WithVariable(cfg.Name, value).WithOutput(node.ID, node.Type, out)
	return out, next, nil
}

// resolveField resolves an amount descriptor and attributes failures to the
// config field being resolved.
func (d *dispatcher) resolveField(ctx context.Context, field string, desc domain.AmountDescriptor, cfg map[string]any, ectx domain.ExecutionContext) (*big.Int, error) {
	v, err := d.resolver.Resolve(ctx, desc, cfg, ectx)
	if err != nil {
		var resErr *domain.ResolutionError
		if errors.As(err, &resErr) && resErr.Field == "" {
			resErr.Field = field
		}
		return nil, err
	}
	return v, nil
}

// decodeConfig decodes the editor-authored config map into a typed per-node
// structure. Weak typing tolerates JSON numbers arriving as float64.
func decodeConfig(node *domain.Node, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(node.Config); err != nil {
		return &domain.ParsedError{
			Category: domain.ErrorConfig,
			Message:  fmt.Sprintf("The configuration of step %s is malformed.", node.ID),
			Detail:   err.Error(),
		}
	}
	return nil
}
