package payments

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hoangteo0103/nft-ticketing-backend/pkg/config"
	pkgerrors "github.com/hoangteo0103/nft-ticketing-backend/pkg/errors"
)

func TestFormatVerifier(t *testing.T) {
	t.Parallel()

	verifier := FormatVerifier{}
	cases := []struct {
		proof  string
		accept bool
	}{
		{"0xabcdef1234567890", true},
		{"  0xABCDEF01 ", true},
		{"", false},
		{"0x", false},
		{"0xzzzz", false},
		{"abcdef1234567890", false},
	}
	for _, tc := range cases {
		err := verifier.Verify(context.Background(), tc.proof)
		if tc.accept && err != nil {
			t.Fatalf("proof %q should be accepted, got %v", tc.proof, err)
		}
		if !tc.accept && !errors.Is(err, ErrRejected) {
			t.Fatalf("proof %q should be rejected, got %v", tc.proof, err)
		}
	}
}

func TestNewSelectsVerifier(t *testing.T) {
	t.Parallel()

	if v, err := New(config.PaymentsConfig{Verifier: "format"}); err != nil {
		t.Fatalf("format verifier: %v", err)
	} else if _, ok := v.(FormatVerifier); !ok {
		t.Fatalf("expected FormatVerifier, got %T", v)
	}

	if _, err := New(config.PaymentsConfig{Verifier: "gateway"}); err == nil {
		t.Fatal("gateway verifier without url should fail")
	}

	if _, err := New(config.PaymentsConfig{Verifier: "chain-oracle"}); err == nil {
		t.Fatal("unknown verifier kind should fail")
	}
}

func TestGatewayVerifierStatusMapping(t *testing.T) {
	t.Parallel()

	var status int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer server.Close()

	verifier, err := NewGatewayVerifier(config.PaymentsConfig{GatewayURL: server.URL})
	if err != nil {
		t.Fatalf("build verifier: %v", err)
	}

	status = http.StatusOK
	if err := verifier.Verify(context.Background(), "0xabc12345"); err != nil {
		t.Fatalf("expected accept, got %v", err)
	}

	status = http.StatusUnprocessableEntity
	if err := verifier.Verify(context.Background(), "0xabc12345"); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}

	status = http.StatusBadGateway
	err = verifier.Verify(context.Background(), "0xabc12345")
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", err)
	}
}

func TestGatewayVerifierUnreachable(t *testing.T) {
	t.Parallel()

	verifier, err := NewGatewayVerifier(config.PaymentsConfig{GatewayURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("build verifier: %v", err)
	}
	err = verifier.Verify(context.Background(), "0xabc12345")
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", err)
	}
}
