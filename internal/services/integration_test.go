package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/services"
	"github.com/abrezinsky/surveydesk/internal/testutil"
)

// ============================================================================
// Integration Test: Build, publish, answer, reward
// ============================================================================

// TestIntegration_SurveyToRewardWorkflow drives a survey from draft to a shipped reward
func TestIntegration_SurveyToRewardWorkflow(t *testing.T) {
	s := newDraftSetup(t)
	ctx := context.Background()
	log := logger.Discard()

	notifications := services.NewNotificationService(log, s.repo, &inlineJobs{}, nil, nil)
	responses := services.NewResponseService(log, s.repo, nil, s.settings)
	seasons := services.NewSeasonPassService(log, s.repo, notifications)
	deliveries := services.NewDeliveryService(log, s.repo, notifications)

	// Step 1: XP per response is configurable
	xp := 60
	if err := s.settings.UpdateSettings(ctx, services.Settings{XPPerResponse: &xp}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	// Step 2: Build the survey in a draft and save it
	id := s.openABC(t)
	if _, err := s.drafts.UpdateMeta(s.owner, id, services.DraftMeta{Title: "Launch feedback"}); err != nil {
		t.Fatalf("UpdateMeta failed: %v", err)
	}
	survey, err := s.drafts.Save(ctx, s.owner, id)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.drafts.Discard(s.owner, id); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}

	// Step 3: Publish
	survey, err = s.svc.Publish(ctx, s.owner, survey.ID)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	public, err := s.svc.GetPublic(ctx, survey.UUID)
	if err != nil {
		t.Fatalf("GetPublic failed: %v", err)
	}
	if len(public.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(public.Questions))
	}

	// Step 4: The follow-up is only visible after a Yes
	visible, err := responses.Visibility(ctx, survey.UUID, map[string]interface{}{"A": "No"})
	if err != nil {
		t.Fatalf("Visibility failed: %v", err)
	}
	if visible["B"] {
		t.Error("B must be hidden after No")
	}

	// Step 5: Two users respond
	alice := testutil.CreateUser(t, s.repo, "alice@example.com", models.RoleUser)
	bob := testutil.CreateUser(t, s.repo, "bob@example.com", models.RoleUser)
	if _, err := responses.Submit(ctx, survey.UUID, &alice, map[string]interface{}{"A": "Yes", "B": "Love it", "C": "more"}); err != nil {
		t.Fatalf("Submit alice failed: %v", err)
	}
	if _, err := responses.Submit(ctx, survey.UUID, &bob, map[string]interface{}{"A": "No", "B": "ignored"}); err != nil {
		t.Fatalf("Submit bob failed: %v", err)
	}

	results, err := s.svc.Results(ctx, s.owner, survey.ID)
	if err != nil {
		t.Fatalf("Results failed: %v", err)
	}
	if results.TotalResponses != 2 {
		t.Errorf("expected 2 responses, got %d", results.TotalResponses)
	}
	for _, q := range results.Questions {
		if q.QuestionUUID == "B" && q.Answered != 1 {
			t.Errorf("hidden answers must be dropped, B answered %d times", q.Answered)
		}
	}

	// Step 6: Admin runs a season with a physical reward
	season, err := seasons.CreateSeason(ctx, services.SeasonInput{Name: "Launch", StartsAt: "2026-01-01", EndsAt: "2026-12-31"})
	if err != nil {
		t.Fatalf("CreateSeason failed: %v", err)
	}
	if err := seasons.ActivateSeason(ctx, season.ID); err != nil {
		t.Fatalf("ActivateSeason failed: %v", err)
	}
	mug, err := seasons.CreateReward(ctx, season.ID, services.RewardInput{Tier: 1, XPRequired: 50, Name: "Mug", Kind: models.RewardPhysical})
	if err != nil {
		t.Fatalf("CreateReward failed: %v", err)
	}

	progress, err := seasons.Current(ctx, alice)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if progress.XP != xp || !progress.Rewards[0].Unlocked {
		t.Errorf("expected mug unlocked with %d XP, got %+v", xp, progress)
	}

	// Step 7: Claim, ship and deliver
	d, err := seasons.Claim(ctx, alice, mug.ID, "42 Elm St")
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	for _, step := range []services.DeliveryUpdate{
		{Status: models.DeliveryProcessing},
		{Status: models.DeliveryShipped, TrackingNumber: "TRK-1"},
		{Status: models.DeliveryDelivered},
	} {
		if d, err = deliveries.UpdateStatus(ctx, d.ID, step); err != nil {
			t.Fatalf("UpdateStatus %s failed: %v", step.Status, err)
		}
	}
	if d.Status != models.DeliveryDelivered || d.TrackingNumber != "TRK-1" {
		t.Errorf("unexpected delivery: %+v", d)
	}

	// Step 8: Alice was told about the claim and every delivery step
	unread, err := notifications.UnreadCount(ctx, alice)
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if unread != 4 {
		t.Errorf("expected 4 notifications, got %d", unread)
	}

	// Step 9: Both respondents are on the board
	board, err := seasons.Leaderboard(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Leaderboard failed: %v", err)
	}
	if board.Items[0].UserID != alice || board.Items[0].XP != xp {
		t.Errorf("expected alice first with %d XP, got %+v", xp, board.Items[0])
	}

	// Step 10: Closing the survey hides it from respondents
	if _, err := s.svc.Unpublish(ctx, s.owner, survey.ID); err != nil {
		t.Fatalf("Unpublish failed: %v", err)
	}
	if _, err := responses.Submit(ctx, survey.UUID, nil, map[string]interface{}{"A": "Yes"}); err == nil {
		t.Error("expected submit to an unpublished survey to fail")
	}
}

// TestIntegration_ConcurrentSubmissions checks XP is credited exactly once per respondent
func TestIntegration_ConcurrentSubmissions(t *testing.T) {
	s := newSurveySetup(t)
	ctx := context.Background()
	survey := s.published(t)
	responses := services.NewResponseService(logger.Discard(), s.repo, nil, s.settings)

	const users = 10
	ids := make([]int, users)
	for i := range ids {
		ids[i] = testutil.CreateUser(t, s.repo, fmt.Sprintf("user%d@example.com", i), models.RoleUser)
	}

	var wg sync.WaitGroup
	errs := make(chan error, users*2)
	for _, id := range ids {
		id := id
		for attempt := 0; attempt < 2; attempt++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := responses.Submit(ctx, survey.UUID, &id, map[string]interface{}{"q-choice": "No"})
				errs <- err
			}()
		}
	}
	wg.Wait()
	close(errs)

	ok, dup := 0, 0
	for err := range errs {
		switch err {
		case nil:
			ok++
		case services.ErrAlreadyResponded:
			dup++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != users || dup != users {
		t.Errorf("expected %d accepted and %d duplicates, got %d and %d", users, users, ok, dup)
	}

	for _, id := range ids {
		u, _ := s.repo.GetUser(ctx, id)
		if u.XP != services.DefaultXPPerResponse {
			t.Errorf("user %d: expected %d XP, got %d", id, services.DefaultXPPerResponse, u.XP)
		}
	}
	count, _ := s.repo.CountResponses(ctx, survey.ID)
	if count != users {
		t.Errorf("expected %d responses, got %d", users, count)
	}
}
