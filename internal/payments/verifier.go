package payments

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hoangteo0103/nft-ticketing-backend/pkg/config"
)

// ErrRejected signals the collaborator examined the payment proof and refused it.
// Any other non-nil error from Verify means the collaborator could not answer,
// and the caller must leave the order untouched.
var ErrRejected = errors.New("payment proof rejected")

// Verifier decides whether an opaque payment proof is acceptable. The proof is
// a wallet signature or transaction hash; validating it against the chain is
// the collaborator's job, surfaced here only as accept/reject/unavailable.
type Verifier interface {
	Verify(ctx context.Context, proof string) error
}

// New selects a verifier implementation from configuration.
func New(cfg config.PaymentsConfig) (Verifier, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Verifier)) {
	case "", "format":
		return FormatVerifier{}, nil
	case "gateway":
		return NewGatewayVerifier(cfg)
	default:
		return nil, fmt.Errorf("unknown payments verifier %q", cfg.Verifier)
	}
}

var proofPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{8,512}$`)

// FormatVerifier accepts any syntactically plausible proof. It exists so the
// platform runs end to end without a chain gateway; deployments that need real
// verification configure the gateway verifier instead.
type FormatVerifier struct{}

func (FormatVerifier) Verify(_ context.Context, proof string) error {
	if !proofPattern.MatchString(strings.TrimSpace(proof)) {
		return ErrRejected
	}
	return nil
}
