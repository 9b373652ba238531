package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/abrezinsky/surveydesk/internal/handlers"
	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/paginator"
	"github.com/abrezinsky/surveydesk/internal/services"
)

// activeSeason creates and activates a season with a digital, a physical and a premium reward
func (ts *testSetup) activeSeason(t *testing.T) (models.Season, map[string]models.Reward) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/admin/seasons", ts.adminToken, services.SeasonInput{
		Name: "Spring", StartsAt: "2026-03-01", EndsAt: "2026-05-31", PremiumPriceCents: 499,
	})
	expect(t, rec, http.StatusCreated)
	season := decode[models.Season](t, rec)

	rec = ts.do(t, http.MethodPost, "/api/admin/seasons/"+itoa(season.ID)+"/activate", ts.adminToken, nil)
	expect(t, rec, http.StatusOK)

	rewards := map[string]models.Reward{}
	for _, in := range []services.RewardInput{
		{Tier: 1, XPRequired: 10, Name: "sticker", Kind: models.RewardDigital},
		{Tier: 2, XPRequired: 20, Name: "hoodie", Kind: models.RewardPhysical},
		{Tier: 3, XPRequired: 10, Name: "badge", Kind: models.RewardDigital, Premium: true},
	} {
		rec = ts.do(t, http.MethodPost, "/api/admin/seasons/"+itoa(season.ID)+"/rewards", ts.adminToken, in)
		expect(t, rec, http.StatusCreated)
		rewards[in.Name] = decode[models.Reward](t, rec)
	}
	return season, rewards
}

func TestSeasonPass_NoActiveSeason(t *testing.T) {
	ts := newTestSetup(t)

	rec := ts.do(t, http.MethodGet, "/api/season-pass", ts.userToken, nil)
	expect(t, rec, http.StatusNotFound)
}

func TestSeasonPass_AdminOnly(t *testing.T) {
	ts := newTestSetup(t)

	rec := ts.do(t, http.MethodPost, "/api/admin/seasons", ts.userToken, services.SeasonInput{Name: "Mine"})
	expect(t, rec, http.StatusForbidden)

	rec = ts.do(t, http.MethodPost, "/api/admin/seasons", ts.adminToken, services.SeasonInput{Name: "", StartsAt: "2026-05-01", EndsAt: "2026-01-01"})
	expect(t, rec, http.StatusBadRequest)
	if got := decode[apiError](t, rec); len(got.Errors["name"]) == 0 {
		t.Errorf("expected a name error, got %v", got.Errors)
	}
}

func TestSeasonPass_ClaimFlow(t *testing.T) {
	ts := newTestSetup(t)
	_, rewards := ts.activeSeason(t)
	claim := func(name string, body interface{}) int {
		return ts.do(t, http.MethodPost, "/api/season-pass/rewards/"+itoa(rewards[name].ID)+"/claim", ts.userToken, body).Code
	}

	if code := claim("sticker", nil); code != http.StatusForbidden {
		t.Errorf("expected 403 without XP, got %d", code)
	}

	if err := ts.repo.AddXP(context.Background(), ts.userID, 25); err != nil {
		t.Fatalf("AddXP failed: %v", err)
	}

	rec := ts.do(t, http.MethodGet, "/api/season-pass", ts.userToken, nil)
	expect(t, rec, http.StatusOK)
	progress := decode[services.SeasonProgress](t, rec)
	if progress.XP != 25 || progress.Premium {
		t.Errorf("unexpected progress %+v", progress)
	}

	if code := claim("sticker", nil); code != http.StatusCreated {
		t.Errorf("expected sticker claimed, got %d", code)
	}
	if code := claim("sticker", nil); code != http.StatusConflict {
		t.Errorf("expected duplicate claim conflict, got %d", code)
	}
	if code := claim("hoodie", nil); code != http.StatusBadRequest {
		t.Errorf("expected shipping address required, got %d", code)
	}
	if code := claim("hoodie", handlers.ClaimRewardRequest{ShippingAddress: "1 Main St"}); code != http.StatusCreated {
		t.Errorf("expected hoodie claimed, got %d", code)
	}
	if code := claim("badge", nil); code != http.StatusForbidden {
		t.Errorf("expected premium required, got %d", code)
	}

	rec = ts.do(t, http.MethodPost, "/api/purchases", ts.userToken, nil)
	expect(t, rec, http.StatusCreated)
	if purchase := decode[models.Purchase](t, rec); purchase.AmountCents != 499 {
		t.Errorf("expected 499 cents, got %d", purchase.AmountCents)
	}
	rec = ts.do(t, http.MethodPost, "/api/purchases", ts.userToken, nil)
	expect(t, rec, http.StatusConflict)

	if code := claim("badge", nil); code != http.StatusCreated {
		t.Errorf("expected badge claimed after purchase, got %d", code)
	}

	rec = ts.do(t, http.MethodGet, "/api/purchases", ts.userToken, nil)
	expect(t, rec, http.StatusOK)
	if purchases := decode[[]models.Purchase](t, rec); len(purchases) != 1 {
		t.Errorf("expected 1 purchase, got %d", len(purchases))
	}
}

func TestDeliveries_AdminLifecycle(t *testing.T) {
	ts := newTestSetup(t)
	_, rewards := ts.activeSeason(t)
	if err := ts.repo.AddXP(context.Background(), ts.userID, 50); err != nil {
		t.Fatalf("AddXP failed: %v", err)
	}
	rec := ts.do(t, http.MethodPost, "/api/season-pass/rewards/"+itoa(rewards["hoodie"].ID)+"/claim", ts.userToken, handlers.ClaimRewardRequest{ShippingAddress: "1 Main St"})
	expect(t, rec, http.StatusCreated)
	delivery := decode[models.Delivery](t, rec)
	path := "/api/admin/deliveries/" + itoa(delivery.ID)

	rec = ts.do(t, http.MethodGet, "/api/admin/deliveries?status=pending", ts.adminToken, nil)
	expect(t, rec, http.StatusOK)
	if page := decode[paginator.Page[models.Delivery]](t, rec); page.TotalItems != 1 {
		t.Errorf("expected 1 pending delivery, got %d", page.TotalItems)
	}

	// Skipping straight to delivered is refused
	rec = ts.do(t, http.MethodPut, path+"/status", ts.adminToken, services.DeliveryUpdate{Status: models.DeliveryDelivered})
	expect(t, rec, http.StatusBadRequest)

	rec = ts.do(t, http.MethodPut, path+"/status", ts.adminToken, services.DeliveryUpdate{Status: models.DeliveryProcessing})
	expect(t, rec, http.StatusOK)

	rec = ts.do(t, http.MethodPut, path+"/status", ts.adminToken, services.DeliveryUpdate{Status: models.DeliveryShipped})
	expect(t, rec, http.StatusBadRequest)

	rec = ts.do(t, http.MethodPut, path+"/status", ts.adminToken, services.DeliveryUpdate{Status: models.DeliveryShipped, TrackingNumber: "1Z999"})
	expect(t, rec, http.StatusOK)

	rec = ts.do(t, http.MethodGet, path, ts.adminToken, nil)
	expect(t, rec, http.StatusOK)
	if got := decode[models.Delivery](t, rec); got.Status != models.DeliveryShipped || got.TrackingNumber != "1Z999" {
		t.Errorf("unexpected delivery %+v", got)
	}

	// The customer was told about each step
	rec = ts.do(t, http.MethodGet, "/api/notifications/unread-count", ts.userToken, nil)
	expect(t, rec, http.StatusOK)
	if got := decode[handlers.UnreadCountResponse](t, rec); got.Unread != 3 {
		t.Errorf("expected 3 unread notifications, got %d", got.Unread)
	}
}

func TestLeaderboard(t *testing.T) {
	ts := newTestSetup(t)
	ctx := context.Background()
	ts.repo.AddXP(ctx, ts.userID, 30)
	ts.repo.AddXP(ctx, ts.businessID, 80)

	rec := ts.do(t, http.MethodGet, "/api/leaderboard?limit=2", ts.userToken, nil)
	expect(t, rec, http.StatusOK)
	board := decode[paginator.Page[models.LeaderboardEntry]](t, rec)
	if len(board.Items) != 2 || board.Items[0].UserID != ts.businessID || board.Items[0].Rank != 1 {
		t.Errorf("unexpected leaderboard %+v", board.Items)
	}

	rec = ts.do(t, http.MethodGet, "/api/leaderboard/me", ts.userToken, nil)
	expect(t, rec, http.StatusOK)
	if me := decode[models.LeaderboardEntry](t, rec); me.Rank != 2 || me.XP != 30 {
		t.Errorf("unexpected rank %+v", me)
	}
}
