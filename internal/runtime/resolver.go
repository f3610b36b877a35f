package runtime

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/fitzies/pulseflow/pkg/domain"
	"github.com/fitzies/pulseflow/pkg/ports"
)

// resolver turns declarative amount descriptors into concrete fixed-point
// integer quantities. It is a leaf component: it reads the chain (reserves)
// but never writes to it.
type resolver struct {
	chain ports.ChainAdapter
}

// Resolve computes the amount described by d, using the node's raw config to
// follow field references and the execution context for prior outputs and
// variables.
func (r *resolver) Resolve(ctx context.Context, d domain.AmountDescriptor, cfg map[string]any, ectx domain.ExecutionContext) (*big.Int, error) {
	return r.resolve(ctx, d, cfg, ectx, false)
}

func (r *resolver) resolve(ctx context.Context, d domain.AmountDescriptor, cfg map[string]any, ectx domain.ExecutionContext, insidePoolRatio bool) (*big.Int, error) {
	switch d.Type {
	case domain.AmountStatic:
		v, err := domain.ParseAmount(d.Value)
		if err != nil {
			return nil, &domain.ResolutionError{Kind: d.Type, Reason: err.Error()}
		}
		return v, nil

	case domain.AmountPreviousOutput:
		return r.resolvePreviousOutput(d, ectx)

	case domain.AmountCurrentBalance:
		// Removed source kind. Definitions created before the removal still
		// reference it, so the failure names the replacement.
		return nil, &domain.ResolutionError{
			Kind:   d.Type,
			Reason: "the current_balance amount source was removed; use a balance_check node and previous_output instead",
		}

	case domain.AmountPoolRatio:
		if insidePoolRatio {
			return nil, &domain.ResolutionError{Kind: d.Type, Reason: "pool_ratio base amount cannot itself be pool_ratio"}
		}
		return r.resolvePoolRatio(ctx, d, cfg, ectx)

	case domain.AmountVariable:
		v, ok := ectx.Variables[d.Name]
		if !ok {
			return nil, &domain.ResolutionError{Kind: d.Type, Reason: fmt.Sprintf("variable %q is not bound", d.Name)}
		}
		return v, nil

	default:
		return nil, &domain.ResolutionError{Kind: d.Type, Reason: "unknown amount source"}
	}
}

func (r *resolver) resolvePreviousOutput(d domain.AmountDescriptor, ectx domain.ExecutionContext) (*big.Int, error) {
	prev := ectx.PreviousOutput()
	if prev == nil {
		return nil, &domain.ResolutionError{Kind: d.Type, Reason: "no node has completed yet"}
	}

	raw, ok := prev[d.Field]
	if !ok {
		return nil, &domain.ResolutionError{
			Kind:   d.Type,
			Reason: fmt.Sprintf("previous node %s (%s) has no output field %q", ectx.PreviousNodeID, ectx.PreviousNodeType, d.Field),
		}
	}

	value, err := toBigInt(raw)
	if err != nil {
		return nil, &domain.ResolutionError{Kind: d.Type, Reason: fmt.Sprintf("output field %q: %v", d.Field, err)}
	}

	pct := d.Percentage
	if pct == 0 {
		pct = 100 // older definitions omit the percentage entirely
	}
	return domain.ApplyPercentage(value, pct), nil
}

// resolvePoolRatio computes the paired amount proportional to a base amount
// held in another config field, using the constant-product quoting rule
// paired = base * reserveOfPaired / reserveOfBase.
func (r *resolver) resolvePoolRatio(ctx context.Context, d domain.AmountDescriptor, cfg map[string]any, ectx domain.ExecutionContext) (*big.Int, error) {
	baseDesc, err := descriptorField(cfg, d.BaseAmountField)
	if err != nil {
		return nil, &domain.ResolutionError{Kind: d.Type, Reason: err.Error()}
	}

	base, err := r.resolve(ctx, baseDesc, cfg, ectx, true)
	if err != nil {
		return nil, err
	}

	baseToken, err := resolveBaseToken(d, cfg)
	if err != nil {
		return nil, &domain.ResolutionError{Kind: d.Type, Reason: err.Error()}
	}

	reserves, err := r.chain.PairReserves(ctx, baseToken, d.PairedToken)
	if err != nil {
		if errors.Is(err, domain.ErrPoolNotFound) {
			return nil, &domain.ResolutionError{
				Kind:   d.Type,
				Reason: fmt.Sprintf("no pool between %s and %s", baseToken, d.PairedToken),
			}
		}
		return nil, err
	}

	reserveBase, reservePaired := reserves.ReserveA, reserves.ReserveB

	// Compatibility shim for one historical configuration shape: the base
	// amount field is denominated in the native coin while the paired token
	// *is* the native coin, so the reserves arrive in the wrong order for
	// the division below.
	if mentionsNativeUnit(d.BaseAmountField) && d.PairedToken == domain.NativeToken {
		reserveBase, reservePaired = reservePaired, reserveBase
	}

	if reserveBase.Sign() == 0 {
		return nil, &domain.ResolutionError{Kind: d.Type, Reason: "base reserve is zero"}
	}

	out := new(big.Int).Mul(base, reservePaired)
	return out.Quo(out, reserveBase), nil
}

// resolveBaseToken handles the two forms of the base token reference: a "$"
// prefixed field reference into the node's own config (current form), or a
// literal token address (legacy form). The legacy form is overridden by the
// node's own token field when one is present, since editors used to write a
// stale address into the descriptor.
func resolveBaseToken(d domain.AmountDescriptor, cfg map[string]any) (string, error) {
	if strings.HasPrefix(d.BaseToken, "$") {
		field := strings.TrimPrefix(d.BaseToken, "$")
		v, ok := cfg[field].(string)
		if !ok || v == "" {
			return "", fmt.Errorf("base token field %q is missing or not a string", field)
		}
		return v, nil
	}

	for _, key := range []string{"tokenA", "token"} {
		if v, ok := cfg[key].(string); ok && v != "" {
			return v, nil
		}
	}

	if d.BaseToken == "" {
		return "", fmt.Errorf("no base token reference")
	}
	return d.BaseToken, nil
}

func mentionsNativeUnit(field string) bool {
	f := strings.ToLower(field)
	return strings.Contains(f, "eth") || strings.Contains(f, "native")
}

// descriptorField decodes an AmountDescriptor held in another field of the
// same node config.
func descriptorField(cfg map[string]any, field string) (domain.AmountDescriptor, error) {
	var d domain.AmountDescriptor
	raw, ok := cfg[field]
	if !ok {
		return d, fmt.Errorf("config has no base amount field %q", field)
	}
	if err := mapstructure.Decode(raw, &d); err != nil {
		return d, fmt.Errorf("base amount field %q is not an amount descriptor: %v", field, err)
	}
	return d, nil
}

// toBigInt normalizes the value shapes an output field can carry: native
// *big.Int from this run, or string/float64 from a context that round-tripped
// through JSON.
func toBigInt(v any) (*big.Int, error) {
	switch val := v.(type) {
	case *big.Int:
		return val, nil
	case big.Int:
		return &val, nil
	case string:
		if out, ok := new(big.Int).SetString(val, 10); ok {
			return out, nil
		}
		return nil, fmt.Errorf("not an integer string: %q", val)
	case float64:
		out, _ := big.NewFloat(val).Int(nil)
		return out, nil
	case int:
		return big.NewInt(int64(val)), nil
	case int64:
		return big.NewInt(val), nil
	case uint64:
		return new(big.Int).SetUint64(val), nil
	default:
		return nil, fmt.Errorf("not a numeric value (%T)", v)
	}
}
