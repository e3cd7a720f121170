package controllers

import (
	"net/http"
	"strings"

	"github.com/hoangteo0103/nft-ticketing-backend/api/responses"
	"github.com/hoangteo0103/nft-ticketing-backend/api/validators"
	"github.com/hoangteo0103/nft-ticketing-backend/internal/tickets"
	pkgerrors "github.com/hoangteo0103/nft-ticketing-backend/pkg/errors"
	"github.com/hoangteo0103/nft-ticketing-backend/pkg/logger"
)

func RegisterTickets(svc *tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tickets.RegisterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		minted, err := svc.Register(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, minted)
	}
}

func GetTicket(svc *tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketID, err := validators.ParseUUIDParam(r, "ticketID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticket, err := svc.Get(r.Context(), ticketID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}

func ListTicketsByOwner(svc *tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.URL.Query().Get("owner"))
		if owner == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "owner query parameter required"))
			return
		}
		owned, err := svc.ListByOwner(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, owned)
	}
}
