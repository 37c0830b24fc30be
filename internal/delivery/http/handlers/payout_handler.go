package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/LavaJover/shvark-payout-service/internal/delivery/http/dto"
	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/LavaJover/shvark-payout-service/internal/usecase/distribution"
	"github.com/LavaJover/shvark-payout-service/internal/usecase/payout"
	"github.com/go-chi/chi/v5"
)

// RateHealth - состояние провайдеров курса
type RateHealth interface {
	HealthCheck(ctx context.Context) map[string]bool
}

type PayoutHandler struct {
	payouts     payout.PayoutUsecase
	configStore domain.ConfigStore
	rates       RateHealth
	logger      *slog.Logger
}

func NewPayoutHandler(payouts payout.PayoutUsecase, configStore domain.ConfigStore, rates RateHealth, logger *slog.Logger) *PayoutHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PayoutHandler{
		payouts:     payouts,
		configStore: configStore,
		rates:       rates,
		logger:      logger.With("component", "http"),
	}
}

func (h *PayoutHandler) respondPayout(w http.ResponseWriter, p *domain.Payout, err error) {
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	RespondJSON(w, http.StatusOK, dto.ToPayoutResponse(p))
}

func (h *PayoutHandler) badRequest(w http.ResponseWriter, err error) {
	RespondError(w, http.StatusBadRequest, "bad_request", err.Error())
}

////////////////////// Merchant //////////////////////

func (h *PayoutHandler) CreatePayout(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePayoutRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	p, err := h.payouts.CreatePayout(r.Context(), &payout.CreatePayoutInput{
		MerchantID:           actorID(r),
		ExternalID:           req.ExternalID,
		Amount:               req.Amount,
		MerchantRate:         req.MerchantRate,
		RateDelta:            req.RateDelta,
		FeePercent:           req.FeePercent,
		ProcessingMinutes:    req.ProcessingMinutes,
		Wallet:               req.Wallet,
		Bank:                 req.Bank,
		IsCard:               req.IsCard,
		BlacklistedTraderIDs: req.BlacklistedTraderIDs,
		WebhookURL:           req.WebhookURL,
		Metadata:             req.Metadata,
	})
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	RespondJSON(w, http.StatusCreated, dto.ToPayoutResponse(p))
}

func (h *PayoutHandler) ListMerchantPayouts(w http.ResponseWriter, r *http.Request) {
	h.listPayouts(w, r, domain.PayoutFilter{MerchantID: actorID(r)})
}

func (h *PayoutHandler) ApprovePayout(w http.ResponseWriter, r *http.Request) {
	p, err := h.payouts.ApprovePayout(r.Context(), chi.URLParam(r, "id"), actorID(r))
	h.respondPayout(w, p, err)
}

func (h *PayoutHandler) CancelByMerchant(w http.ResponseWriter, r *http.Request) {
	var req dto.ReasonRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	p, err := h.payouts.CancelByMerchant(r.Context(), chi.URLParam(r, "id"), actorID(r), req.Reason)
	h.respondPayout(w, p, err)
}

func (h *PayoutHandler) OpenDispute(w http.ResponseWriter, r *http.Request) {
	var req dto.DisputeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	p, dispute, err := h.payouts.OpenDispute(r.Context(), &payout.OpenDisputeInput{
		PayoutID:   chi.URLParam(r, "id"),
		MerchantID: actorID(r),
		Message:    req.Message,
		Files:      req.Files,
	})
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	RespondJSON(w, http.StatusCreated, map[string]any{
		"payout":  dto.ToPayoutResponse(p),
		"dispute": dto.ToDisputeResponse(dispute),
	})
}

////////////////////// Trader //////////////////////

func (h *PayoutHandler) ListTraderPayouts(w http.ResponseWriter, r *http.Request) {
	h.listPayouts(w, r, domain.PayoutFilter{TraderID: actorID(r)})
}

func (h *PayoutHandler) AcceptPayout(w http.ResponseWriter, r *http.Request) {
	p, err := h.payouts.AcceptPayout(r.Context(), chi.URLParam(r, "id"), actorID(r))
	h.respondPayout(w, p, err)
}

func (h *PayoutHandler) ConfirmPayout(w http.ResponseWriter, r *http.Request) {
	var req dto.ConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	p, err := h.payouts.ConfirmPayout(r.Context(), chi.URLParam(r, "id"), actorID(r), req.ProofFiles)
	h.respondPayout(w, p, err)
}

func (h *PayoutHandler) CancelByTrader(w http.ResponseWriter, r *http.Request) {
	var req dto.ReasonRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	p, err := h.payouts.CancelPayout(r.Context(), &payout.CancelPayoutInput{
		PayoutID:   chi.URLParam(r, "id"),
		TraderID:   actorID(r),
		Reason:     req.Reason,
		ReasonCode: req.ReasonCode,
		Files:      req.Files,
	})
	h.respondPayout(w, p, err)
}

////////////////////// Admin //////////////////////

func (h *PayoutHandler) RejectPayout(w http.ResponseWriter, r *http.Request) {
	var req dto.ReasonRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	p, err := h.payouts.RejectPayout(r.Context(), chi.URLParam(r, "id"), actorID(r), req.Reason)
	h.respondPayout(w, p, err)
}

func (h *PayoutHandler) AdjustRate(w http.ResponseWriter, r *http.Request) {
	var req dto.AdjustRateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	p, err := h.payouts.AdjustRate(r.Context(), &payout.AdjustRateInput{
		PayoutID:   chi.URLParam(r, "id"),
		AdminID:    actorID(r),
		RateDelta:  req.RateDelta,
		FeePercent: req.FeePercent,
	})
	h.respondPayout(w, p, err)
}

func (h *PayoutHandler) ForceComplete(w http.ResponseWriter, r *http.Request) {
	p, err := h.payouts.ForceComplete(r.Context(), chi.URLParam(r, "id"), actorID(r))
	h.respondPayout(w, p, err)
}

func (h *PayoutHandler) ForceCancel(w http.ResponseWriter, r *http.Request) {
	var req dto.ReasonRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	p, err := h.payouts.ForceCancel(r.Context(), chi.URLParam(r, "id"), actorID(r), req.Reason)
	h.respondPayout(w, p, err)
}

// AssignPayout - ручное назначение; reserve=true сразу замораживает средства
func (h *PayoutHandler) AssignPayout(w http.ResponseWriter, r *http.Request) {
	var req dto.AssignRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	var (
		p   *domain.Payout
		err error
	)
	if req.Reserve {
		p, err = h.payouts.Reassign(r.Context(), id, req.TraderID)
	} else {
		p, err = h.payouts.Assign(r.Context(), id, req.TraderID)
	}
	h.respondPayout(w, p, err)
}

func (h *PayoutHandler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveDisputeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	dispute, err := h.payouts.ResolveDispute(r.Context(), &payout.ResolveDisputeInput{
		DisputeID:  chi.URLParam(r, "id"),
		Outcome:    domain.DisputeStatus(req.Outcome),
		Resolution: req.Resolution,
		ActorID:    actorID(r),
	})
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	RespondJSON(w, http.StatusOK, dto.ToDisputeResponse(dispute))
}

func (h *PayoutHandler) SetDistributionEnabled(w http.ResponseWriter, r *http.Request) {
	var req dto.DistributionToggleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	value := strconv.FormatBool(req.Enabled)
	if err := h.configStore.Upsert(r.Context(), distribution.KeyDistributionEnabled, value); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	h.logger.Info("distribution toggled", "enabled", req.Enabled, "admin_id", actorID(r))
	RespondJSON(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}

func (h *PayoutHandler) ExchangeHealth(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.rates.HealthCheck(r.Context()))
}

////////////////////// Shared //////////////////////

// GetPayout доступен мерчанту-владельцу, назначенному трейдеру и админу.
// Чужую выплату отдаём как 404.
func (h *PayoutHandler) GetPayout(w http.ResponseWriter, r *http.Request) {
	merchantID := r.Header.Get(HeaderMerchantID)
	traderID := r.Header.Get(HeaderTraderID)
	adminID := r.Header.Get(HeaderAdminID)
	if merchantID == "" && traderID == "" && adminID == "" {
		RespondError(w, http.StatusUnauthorized, "unauthorized", "missing actor header")
		return
	}

	p, err := h.payouts.GetPayoutByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	visible := adminID != "" ||
		(merchantID != "" && p.MerchantID == merchantID) ||
		(traderID != "" && p.TraderID == traderID)
	if !visible {
		respondDomainError(w, h.logger, domain.ErrPayoutNotFound)
		return
	}
	RespondJSON(w, http.StatusOK, dto.ToPayoutResponse(p))
}

func (h *PayoutHandler) listPayouts(w http.ResponseWriter, r *http.Request, filter domain.PayoutFilter) {
	q := r.URL.Query()
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	for _, s := range q["status"] {
		filter.Statuses = append(filter.Statuses, domain.PayoutStatus(s))
	}

	payouts, total, err := h.payouts.GetPayouts(r.Context(), filter)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	resp := dto.PayoutListResponse{
		Payouts: make([]dto.PayoutResponse, len(payouts)),
		Total:   total,
		Page:    filter.Page,
		Limit:   filter.Limit,
	}
	for i, p := range payouts {
		resp.Payouts[i] = dto.ToPayoutResponse(p)
	}
	RespondJSON(w, http.StatusOK, resp)
}
