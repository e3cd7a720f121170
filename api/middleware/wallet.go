package middleware

import (
	"context"
	"net/http"
	"strings"

	pkgerrors "github.com/hoangteo0103/nft-ticketing-backend/pkg/errors"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/logger"
)

const walletHeader = "X-Wallet-Address"

type contextKey string

const ctxWalletAddress contextKey = "wallet_address"

// WalletAddress lifts the caller's wallet address from the request header into
// the context. Signature-based authentication of the header is the gateway's
// concern; here the address only scopes what the caller may act on.
func WalletAddress(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			address := strings.TrimSpace(r.Header.Get(walletHeader))
			if address == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), ctxWalletAddress, address)
			if logg != nil {
				ctx = logg.WithWalletAddress(ctx, address)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WalletFromContext returns the caller's wallet address, if any.
func WalletFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxWalletAddress).(string); ok {
		return v
	}
	return ""
}

// RequireWallet returns the caller's wallet address or an unauthorized error.
func RequireWallet(ctx context.Context) (string, error) {
	address := WalletFromContext(ctx)
	if address == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "wallet address required")
	}
	return address, nil
}
