package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/subtrack-labs/pricewatch/internal/model"
	"github.com/subtrack-labs/pricewatch/internal/pricing"
	"github.com/subtrack-labs/pricewatch/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type discoverRequest struct {
	ServiceName string `json:"service_name"`
	PlanName    string `json:"plan_name"`
	Locale      string `json:"locale,omitempty"`
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	out := s.pipeline.Discover(r.Context(), model.PriceQuery{
		ServiceName: req.ServiceName,
		PlanName:    req.PlanName,
		Locale:      req.Locale,
	})
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("wait") == "1" {
		summary, err := s.refresher.RefreshAll(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, "refresh failed")
			return
		}
		respondJSON(w, http.StatusOK, summary)
		return
	}

	go func() {
		if _, err := s.refresher.RefreshAll(context.WithoutCancel(r.Context())); err != nil {
			zap.L().Error("server: background refresh failed", zap.Error(err))
		}
	}()
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "refresh started"})
}

type createSubscriptionRequest struct {
	UserID   string  `json:"user_id"`
	Name     string  `json:"name"`
	Amount   string  `json:"amount"`
	Currency string  `json:"currency,omitempty"`
	PlanID   *string `json:"plan_id,omitempty"`
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "user_id and name are required")
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || amount.IsNegative() {
		respondError(w, http.StatusBadRequest, "amount must be a non-negative decimal string")
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}

	sub, err := s.store.CreateSubscription(r.Context(), model.Subscription{
		UserID:   req.UserID,
		Name:     req.Name,
		Amount:   amount,
		Currency: currency,
		PlanID:   req.PlanID,
	})
	if err != nil {
		zap.L().Error("server: create subscription failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "could not create subscription")
		return
	}
	respondJSON(w, http.StatusCreated, sub)
}

// subscriptionResponse decorates a subscription with its reconciliation
// state against the cached catalog price.
type subscriptionResponse struct {
	model.Subscription
	PriceAlertStatus model.AlertStatus `json:"price_alert_status"`
	Plan             *model.Plan       `json:"plan,omitempty"`
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sub, plan, err := s.store.GetSubscriptionWithPlan(r.Context(), id)
	if err != nil {
		zap.L().Error("server: get subscription failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "could not load subscription")
		return
	}
	if sub == nil {
		respondError(w, http.StatusNotFound, "subscription not found")
		return
	}

	respondJSON(w, http.StatusOK, subscriptionResponse{
		Subscription:     *sub,
		PriceAlertStatus: pricing.AlertStatus(*sub, plan),
		Plan:             plan,
	})
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	subs, err := s.store.ListSubscriptions(r.Context(), userID)
	if err != nil {
		zap.L().Error("server: list subscriptions failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "could not list subscriptions")
		return
	}

	plans, err := s.store.ListPlans(r.Context())
	if err != nil {
		zap.L().Error("server: list plans failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "could not list subscriptions")
		return
	}
	planByID := make(map[string]model.Plan, len(plans))
	for _, p := range plans {
		planByID[p.ID] = p
	}

	out := make([]subscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		var plan *model.Plan
		if sub.PlanID != nil {
			if p, ok := planByID[*sub.PlanID]; ok {
				plan = &p
			}
		}
		out = append(out, subscriptionResponse{
			Subscription:     sub,
			PriceAlertStatus: pricing.AlertStatus(sub, plan),
			Plan:             plan,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteSubscription(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "subscription not found")
			return
		}
		zap.L().Error("server: delete subscription failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "could not delete subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createNotificationRequest struct {
	UserID string `json:"user_id"`
	Kind   string `json:"kind,omitempty"`
	Title  string `json:"title"`
	Body   string `json:"body,omitempty"`
}

func (s *Server) handleCreateNotification(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Title) == "" {
		respondError(w, http.StatusBadRequest, "user_id and title are required")
		return
	}

	n, err := s.store.CreateNotification(r.Context(), model.Notification{
		UserID: req.UserID,
		Kind:   model.NotificationKind(req.Kind),
		Title:  req.Title,
		Body:   req.Body,
	})
	if err != nil {
		zap.L().Error("server: create notification failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "could not create notification")
		return
	}
	respondJSON(w, http.StatusCreated, n)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	notifs, err := s.store.ListNotifications(r.Context(), userID)
	if err != nil {
		zap.L().Error("server: list notifications failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "could not list notifications")
		return
	}
	if notifs == nil {
		notifs = []model.Notification{}
	}
	respondJSON(w, http.StatusOK, notifs)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.MarkNotificationRead(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "notification not found")
			return
		}
		zap.L().Error("server: mark notification read failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "could not update notification")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "read", "read_at": time.Now().UTC().Format(time.RFC3339)})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("server: encode response failed", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
