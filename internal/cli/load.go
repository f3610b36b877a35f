// Package cli implements the command logic behind cmd/pulseflow: loading
// workflow definition files, dry-running them against the simulated chain,
// validating structure, and serving the HTTP API.
package cli

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fitzies/pulseflow/pkg/adapters/memory"
	"github.com/fitzies/pulseflow/pkg/domain"
)

// Definition is the on-disk shape of a workflow file: the graph plus an
// optional simulation seed for dry runs.
type Definition struct {
	Workflow   domain.Workflow `yaml:"workflow" json:"workflow"`
	Simulation *Simulation     `yaml:"simulation,omitempty" json:"simulation,omitempty"`
}

// Simulation seeds the in-memory chain for a dry run. Amounts are human
// decimal strings ("1.5"), converted to fixed-point integers on load.
type Simulation struct {
	Balances []SimBalance `yaml:"balances,omitempty" json:"balances,omitempty"`
	Pools    []SimPool    `yaml:"pools,omitempty" json:"pools,omitempty"`
	GasPrice string       `yaml:"gasPrice,omitempty" json:"gasPrice,omitempty"`
}

// SimBalance seeds one wallet balance. An empty token means the native coin.
type SimBalance struct {
	Token  string `yaml:"token,omitempty" json:"token,omitempty"`
	Amount string `yaml:"amount" json:"amount"`
}

// SimPool seeds one liquidity pool.
type SimPool struct {
	TokenA   string `yaml:"tokenA" json:"tokenA"`
	TokenB   string `yaml:"tokenB" json:"tokenB"`
	ReserveA string `yaml:"reserveA" json:"reserveA"`
	ReserveB string `yaml:"reserveB" json:"reserveB"`
}

// LoadDefinition reads a workflow file, YAML or JSON by extension.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var def Definition
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if def.Workflow.ID == "" {
		def.Workflow.ID = filepath.Base(path)
	}
	return &def, nil
}

// SeedChain builds a simulated chain from the definition's simulation block.
func SeedChain(def *Definition) (*memory.Chain, error) {
	chain := memory.NewChain()
	if def.Simulation == nil {
		return chain, nil
	}

	for _, b := range def.Simulation.Balances {
		amount, err := domain.ParseAmount(b.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid simulation balance: %w", err)
		}
		token := b.Token
		if token == "" {
			token = domain.NativeToken
		}
		chain.SetBalance(def.Workflow.Wallet, token, amount)
	}

	for _, p := range def.Simulation.Pools {
		reserveA, err := parseReserve(p.ReserveA)
		if err != nil {
			return nil, err
		}
		reserveB, err := parseReserve(p.ReserveB)
		if err != nil {
			return nil, err
		}
		chain.AddPool(p.TokenA, p.TokenB, reserveA, reserveB)
	}

	if def.Simulation.GasPrice != "" {
		price, err := domain.ParseAmount(def.Simulation.GasPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid simulation gas price: %w", err)
		}
		chain.SetGasPrice(price)
	}

	return chain, nil
}

func parseReserve(s string) (*big.Int, error) {
	v, err := domain.ParseAmount(s)
	if err != nil {
		return nil, fmt.Errorf("invalid simulation reserve: %w", err)
	}
	return v, nil
}
