package handlers

import (
	"context"
	"net/http"
)

// Аутентификация внешняя: шлюз проставляет заголовки актора
const (
	HeaderMerchantID = "X-Merchant-ID"
	HeaderTraderID   = "X-Trader-ID"
	HeaderAdminID    = "X-Admin-ID"
)

type actorKind int

const (
	actorMerchant actorKind = iota
	actorTrader
	actorAdmin
)

type actorKey struct{}

type actor struct {
	kind actorKind
	id   string
}

// RequireActor пропускает запрос, только если задан заголовок нужного актора
func RequireActor(kind actorKind) func(http.Handler) http.Handler {
	header := map[actorKind]string{
		actorMerchant: HeaderMerchantID,
		actorTrader:   HeaderTraderID,
		actorAdmin:    HeaderAdminID,
	}[kind]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(header)
			if id == "" {
				RespondError(w, http.StatusUnauthorized, "unauthorized", "missing "+header)
				return
			}
			ctx := context.WithValue(r.Context(), actorKey{}, actor{kind: kind, id: id})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func actorID(r *http.Request) string {
	a, _ := r.Context().Value(actorKey{}).(actor)
	return a.id
}
