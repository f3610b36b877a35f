package runtime

import (
	"errors"
	"strings"

	"github.com/fitzies/pulseflow/pkg/domain"
)

// classifyRule matches a raw failure by adapter code or message substring.
// Rules are checked in order; the first match wins.
type classifyRule struct {
	codes      []string
	substrings []string
	category   domain.ErrorCategory
	retryable  bool
	message    string
}

var classifyRules = []classifyRule{
	// Transient network conditions.
	{
		codes:      []string{"TIMEOUT", "RATE_LIMITED"},
		substrings: []string{"timeout", "timed out", "deadline exceeded", "rate limit", "too many requests", "429"},
		category:   domain.ErrorNetwork,
		retryable:  true,
		message:    "The network is busy or slow. This usually resolves on its own; try again shortly.",
	},
	{
		codes:      []string{"GATEWAY_ERROR"},
		substrings: []string{"bad gateway", "service unavailable", "gateway timeout", "502", "503", "504", "connection refused", "connection reset"},
		category:   domain.ErrorNetwork,
		retryable:  true,
		message:    "The blockchain gateway is temporarily unavailable. Try again shortly.",
	},

	// Blockchain-level failures. Nonce conflicts are the only retryable ones.
	{
		codes:      []string{"NONCE_CONFLICT"},
		substrings: []string{"nonce too low", "replacement transaction underpriced", "already known"},
		category:   domain.ErrorBlockchain,
		retryable:  true,
		message:    "A competing transaction from this wallet was in flight. Try again.",
	},
	{
		codes:      []string{"INSUFFICIENT_FUNDS"},
		substrings: []string{"insufficient funds", "insufficient balance", "transfer amount exceeds balance"},
		category:   domain.ErrorBlockchain,
		retryable:  false,
		message:    "The wallet does not hold enough funds for this operation.",
	},
	{
		codes:      []string{"EXECUTION_REVERTED"},
		substrings: []string{"execution reverted", "reverted", "transaction failed"},
		category:   domain.ErrorBlockchain,
		retryable:  false,
		message:    "The transaction was rejected by the contract it called.",
	},
	{
		codes:      []string{"SIGNATURE_REJECTED"},
		substrings: []string{"invalid signature", "signature rejected", "signing failed"},
		category:   domain.ErrorBlockchain,
		retryable:  false,
		message:    "The transaction could not be signed for this wallet.",
	},

	// Configuration problems.
	{
		codes:      []string{"POOL_NOT_FOUND", "TOKEN_NOT_FOUND"},
		substrings: []string{"pool not found", "no pool", "unknown token", "not found"},
		category:   domain.ErrorConfig,
		retryable:  false,
		message:    "A token or pool referenced by this step does not exist.",
	},
	{
		codes:      []string{"INVALID_ADDRESS"},
		substrings: []string{"invalid address", "invalid recipient", "bad address checksum"},
		category:   domain.ErrorConfig,
		retryable:  false,
		message:    "An address in this step's configuration is invalid.",
	},
}

// classify turns a raw failure into a categorized, user-facing error.
// Structured errors produced inside the engine (resolution and guard
// failures) carry their own category; everything else goes through the
// ordered rule table.
func classify(err error) *domain.ParsedError {
	var parsed *domain.ParsedError
	if errors.As(err, &parsed) {
		return parsed
	}

	var resErr *domain.ResolutionError
	if errors.As(err, &resErr) {
		return &domain.ParsedError{
			Category:  domain.ErrorConfig,
			Retryable: false,
			Message:   "A step's amount configuration could not be resolved.",
			Detail:    resErr.Error(),
		}
	}

	var guardErr *domain.GuardError
	if errors.As(err, &guardErr) {
		// Gas ceilings trip on transient chain conditions; retrying later is
		// reasonable advice.
		return &domain.ParsedError{
			Category:  domain.ErrorBlockchain,
			Retryable: true,
			Message:   "Stopped: the gas price ceiling for this workflow was exceeded.",
			Detail:    guardErr.Error(),
		}
	}

	var code string
	var chainErr *domain.ChainError
	if errors.As(err, &chainErr) {
		code = chainErr.Code
	}
	text := strings.ToLower(err.Error())

	for _, rule := range classifyRules {
		if rule.matches(code, text) {
			return &domain.ParsedError{
				Category:  rule.category,
				Retryable: rule.retryable,
				Message:   rule.message,
				Detail:    err.Error(),
			}
		}
	}

	return &domain.ParsedError{
		Category:  domain.ErrorUnknown,
		Retryable: false,
		Message:   "Something went wrong executing this step.",
		Detail:    err.Error(),
	}
}

func (r classifyRule) matches(code, text string) bool {
	for _, c := range r.codes {
		if code != "" && code == c {
			return true
		}
	}
	for _, s := range r.substrings {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}
