package handlers

import (
	"net/http"
	"strings"

	"github.com/abrezinsky/surveydesk/internal/repository"
	"github.com/abrezinsky/surveydesk/internal/services"
)

// ==================== Season Pass (user) ====================

func (h *Handlers) handleCurrentSeason(w http.ResponseWriter, r *http.Request) {
	progress, err := h.SeasonPass.Current(r.Context(), actor(r).UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, progress)
}

func (h *Handlers) handleClaimReward(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req ClaimRewardRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.respondError(w, err)
			return
		}
	}
	delivery, err := h.SeasonPass.Claim(r.Context(), actor(r).UserID, id, req.ShippingAddress)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, delivery)
}

func (h *Handlers) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.SeasonPass.ListPurchases(r.Context(), actor(r).UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, purchases)
}

func (h *Handlers) handlePurchase(w http.ResponseWriter, r *http.Request) {
	purchase, err := h.SeasonPass.Purchase(r.Context(), actor(r).UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, purchase)
}

func (h *Handlers) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	board, err := h.SeasonPass.Leaderboard(r.Context(), page, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, board)
}

func (h *Handlers) handleMyRank(w http.ResponseWriter, r *http.Request) {
	entry, err := h.SeasonPass.MyRank(r.Context(), actor(r).UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, entry)
}

// ==================== Seasons (admin) ====================

func (h *Handlers) handleListSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := h.SeasonPass.ListSeasons(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, seasons)
}

func (h *Handlers) handleCreateSeason(w http.ResponseWriter, r *http.Request) {
	var req services.SeasonInput
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	season, err := h.SeasonPass.CreateSeason(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, season)
}

func (h *Handlers) handleGetSeason(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	season, err := h.SeasonPass.GetSeason(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, season)
}

func (h *Handlers) handleUpdateSeason(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req services.SeasonInput
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	season, err := h.SeasonPass.UpdateSeason(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, season)
}

func (h *Handlers) handleDeleteSeason(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.SeasonPass.DeleteSeason(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	respondDeleted(w)
}

func (h *Handlers) handleActivateSeason(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.SeasonPass.ActivateSeason(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, "Season activated")
}

func (h *Handlers) handleCreateReward(w http.ResponseWriter, r *http.Request) {
	seasonID, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req services.RewardInput
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	reward, err := h.SeasonPass.CreateReward(r.Context(), seasonID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, reward)
}

func (h *Handlers) handleUpdateReward(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req services.RewardInput
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	reward, err := h.SeasonPass.UpdateReward(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, reward)
}

func (h *Handlers) handleDeleteReward(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.SeasonPass.DeleteReward(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	respondDeleted(w)
}

// ==================== Deliveries (admin) ====================

func (h *Handlers) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.DeliveryFilter{
		Status:   strings.TrimSpace(q.Get("status")),
		SeasonID: queryInt(r, "season_id", 0),
		UserID:   queryInt(r, "user_id", 0),
		Query:    q.Get("q"),
	}
	page, limit := pageParams(r)
	deliveries, err := h.Deliveries.List(r.Context(), f, page, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, deliveries)
}

func (h *Handlers) handleGetDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	delivery, err := h.Deliveries.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, delivery)
}

func (h *Handlers) handleUpdateDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req services.DeliveryUpdate
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	delivery, err := h.Deliveries.UpdateStatus(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, delivery)
}
