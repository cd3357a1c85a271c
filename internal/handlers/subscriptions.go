package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"

	"tubedigest-backend/internal/models"
	"tubedigest-backend/internal/services"
	"tubedigest-backend/internal/storage"
)

type SubscriptionHandler struct {
	store *storage.SubscriptionStore
}

func NewSubscriptionHandler(store *storage.SubscriptionStore) *SubscriptionHandler {
	return &SubscriptionHandler{store: store}
}

func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	req.ChannelURL = strings.TrimSpace(req.ChannelURL)
	req.UserEmail = strings.TrimSpace(req.UserEmail)
	req.ChannelName = strings.TrimSpace(req.ChannelName)

	if req.ChannelURL == "" || req.UserEmail == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "channel_url and user_email are required", r))
		return
	}
	if _, err := mail.ParseAddress(req.UserEmail); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "user_email is not a valid email address", r))
		return
	}
	if !services.IsChannelURL(req.ChannelURL) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "channel_url is not a channel URL", r))
		return
	}
	if req.ChannelName == "" {
		req.ChannelName = req.ChannelURL
	}

	sub, err := h.store.Create(req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

// List returns active subscriptions, optionally filtered by ?email=.
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))

	var (
		subs []models.Subscription
		err  error
	)
	if email != "" {
		subs, err = h.store.ListByEmail(email)
	} else {
		subs, err = h.store.List()
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if subs == nil {
		subs = []models.Subscription{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"subscriptions": subs,
		"count":         len(subs),
	})
}

// Emails lists the distinct subscriber addresses with active subscriptions.
func (h *SubscriptionHandler) Emails(w http.ResponseWriter, r *http.Request) {
	emails, err := h.store.UniqueEmails()
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if emails == nil {
		emails = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"emails": emails,
		"count":  len(emails),
	})
}

// Delete removes a subscription by ID. Unknown IDs still return 200 so
// retried deletes are harmless.
func (h *SubscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.Delete(id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Subscription deleted"})
}

// Unsubscribe deactivates by (email, channel) so a subscriber can opt out
// without knowing the subscription ID.
func (h *SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserEmail  string `json:"user_email"`
		ChannelURL string `json:"channel_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.UserEmail == "" || req.ChannelURL == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "user_email and channel_url are required", r))
		return
	}

	found, err := h.store.DeactivateByEmailAndChannel(req.UserEmail, req.ChannelURL)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No active subscription for that email and channel", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Unsubscribed"})
}
