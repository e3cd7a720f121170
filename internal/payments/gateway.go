package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hoangteo0103/nft-ticketing-backend/pkg/config"
	pkgerrors "github.com/hoangteo0103/nft-ticketing-backend/pkg/errors"
)

// GatewayVerifier defers proof verification to the chain-gateway collaborator.
type GatewayVerifier struct {
	url    string
	client *http.Client
}

// NewGatewayVerifier builds an HTTP verifier against the configured gateway.
func NewGatewayVerifier(cfg config.PaymentsConfig) (*GatewayVerifier, error) {
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("payments gateway url required")
	}
	timeout := cfg.GatewayTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GatewayVerifier{
		url:    cfg.GatewayURL,
		client: &http.Client{Timeout: timeout},
	}, nil
}

type verifyRequest struct {
	Proof string `json:"proof"`
}

func (g *GatewayVerifier) Verify(ctx context.Context, proof string) error {
	body, err := json.Marshal(verifyRequest{Proof: proof})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode verify request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build verify request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusPaymentRequired:
		return ErrRejected
	default:
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("payment gateway returned status %d", resp.StatusCode))
	}
}
