package acceptance

import (
	"net/http"
	"time"

	"github.com/auralearn/companion-api/internal/dto"
)

func upsertBody(currentStep int, completed bool) dto.UpsertProgressRequest {
	return dto.UpsertProgressRequest{
		CurrentStep: &currentStep,
		Completed:   &completed,
	}
}

func (s *Suite) TestProgress_EmptyList() {
	auth := s.register("empty@example.com", "pw123456", "Empty")

	resp := s.doJSON("GET", "/api/v1/progress", auth.Token, nil)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var listResp dto.ProgressListResponse
	s.decode(resp, &listResp)
	s.Empty(listResp.Progress)
	s.NotNil(listResp.Progress)
}

func (s *Suite) TestProgress_GetUntouchedJourneyReturnsDefault() {
	auth := s.register("default@example.com", "pw123456", "Default")

	resp := s.doJSON("GET", "/api/v1/progress/whatsapp_intro", auth.Token, nil)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var detail dto.ProgressDetailResponse
	s.decode(resp, &detail)

	s.Require().NotNil(detail.Progress)
	s.Equal("whatsapp_intro", detail.Progress.JourneyID)
	s.Equal(0, detail.Progress.CurrentStep)
	s.False(detail.Progress.Completed)
	s.Nil(detail.Progress.CompletedAt)
	s.Empty(detail.StepCompletions)

	// The default read must not create a row.
	listResp := s.doJSON("GET", "/api/v1/progress", auth.Token, nil)
	defer listResp.Body.Close()

	var list dto.ProgressListResponse
	s.decode(listResp, &list)
	s.Empty(list.Progress)
}

func (s *Suite) TestProgress_UpsertCreatesAndUpdates() {
	auth := s.register("upsert@example.com", "pw123456", "Upsert")

	resp := s.doJSON("PUT", "/api/v1/progress/video_calls", auth.Token, upsertBody(2, false))
	s.Equal(http.StatusOK, resp.StatusCode)

	var created dto.ProgressResponse
	s.decode(resp, &created)
	resp.Body.Close()

	s.Equal("video_calls", created.Progress.JourneyID)
	s.Equal(2, created.Progress.CurrentStep)
	s.False(created.Progress.Completed)

	resp2 := s.doJSON("PUT", "/api/v1/progress/video_calls", auth.Token, upsertBody(4, false))
	s.Equal(http.StatusOK, resp2.StatusCode)

	var updated dto.ProgressResponse
	s.decode(resp2, &updated)
	resp2.Body.Close()

	s.Equal(4, updated.Progress.CurrentStep)

	// Still a single row.
	listResp := s.doJSON("GET", "/api/v1/progress", auth.Token, nil)
	defer listResp.Body.Close()

	var list dto.ProgressListResponse
	s.decode(listResp, &list)
	s.Len(list.Progress, 1)
}

func (s *Suite) TestProgress_UpsertIsNotMonotonic() {
	auth := s.register("rewind@example.com", "pw123456", "Rewind")

	resp := s.doJSON("PUT", "/api/v1/progress/photos_basics", auth.Token, upsertBody(3, false))
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp2 := s.doJSON("PUT", "/api/v1/progress/photos_basics", auth.Token, upsertBody(1, false))
	s.Equal(http.StatusOK, resp2.StatusCode)

	var rewound dto.ProgressResponse
	s.decode(resp2, &rewound)
	resp2.Body.Close()

	s.Equal(1, rewound.Progress.CurrentStep)
}

func (s *Suite) TestProgress_CompletedAtIsStable() {
	auth := s.register("stable@example.com", "pw123456", "Stable")

	resp := s.doJSON("PUT", "/api/v1/progress/calendar_intro", auth.Token, upsertBody(5, true))
	s.Equal(http.StatusOK, resp.StatusCode)

	var completed dto.ProgressResponse
	s.decode(resp, &completed)
	resp.Body.Close()

	s.Require().NotNil(completed.Progress.CompletedAt)
	firstCompletedAt := *completed.Progress.CompletedAt

	// Marking the journey incomplete preserves the original timestamp.
	resp2 := s.doJSON("PUT", "/api/v1/progress/calendar_intro", auth.Token, upsertBody(2, false))
	s.Equal(http.StatusOK, resp2.StatusCode)

	var reopened dto.ProgressResponse
	s.decode(resp2, &reopened)
	resp2.Body.Close()

	s.Require().NotNil(reopened.Progress.CompletedAt)
	s.WithinDuration(firstCompletedAt, *reopened.Progress.CompletedAt, time.Millisecond)

	// So does completing it again.
	resp3 := s.doJSON("PUT", "/api/v1/progress/calendar_intro", auth.Token, upsertBody(5, true))
	s.Equal(http.StatusOK, resp3.StatusCode)

	var recompleted dto.ProgressResponse
	s.decode(resp3, &recompleted)
	resp3.Body.Close()

	s.Require().NotNil(recompleted.Progress.CompletedAt)
	s.WithinDuration(firstCompletedAt, *recompleted.Progress.CompletedAt, time.Millisecond)
}

func (s *Suite) TestProgress_UpsertRequiresCurrentStep() {
	auth := s.register("invalid@example.com", "pw123456", "Invalid")

	resp := s.doJSON("PUT", "/api/v1/progress/j1", auth.Token, map[string]interface{}{"completed": true})
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestProgress_RecordStep() {
	auth := s.register("steps@example.com", "pw123456", "Steps")

	timeSpent := 42
	resp := s.doJSON("POST", "/api/v1/progress/maps_intro/steps/0", auth.Token, dto.StepCompletionRequest{TimeSpentSeconds: &timeSpent})
	s.Equal(http.StatusOK, resp.StatusCode)

	var stepResp dto.StepCompletionResponse
	s.decode(resp, &stepResp)
	resp.Body.Close()

	s.Equal("maps_intro", stepResp.Completion.JourneyID)
	s.Equal(0, stepResp.Completion.StepIndex)
	s.Require().NotNil(stepResp.Completion.TimeSpentSeconds)
	s.Equal(42, *stepResp.Completion.TimeSpentSeconds)

	// No body means no elapsed time.
	resp2 := s.doJSON("POST", "/api/v1/progress/maps_intro/steps/1", auth.Token, nil)
	s.Equal(http.StatusOK, resp2.StatusCode)

	var stepResp2 dto.StepCompletionResponse
	s.decode(resp2, &stepResp2)
	resp2.Body.Close()
	s.Nil(stepResp2.Completion.TimeSpentSeconds)
}

func (s *Suite) TestProgress_RecordStepIsAppendOnly() {
	auth := s.register("appendonly@example.com", "pw123456", "Append")

	for i := 0; i < 3; i++ {
		resp := s.doJSON("POST", "/api/v1/progress/maps_intro/steps/2", auth.Token, nil)
		s.Equal(http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	detailResp := s.doJSON("GET", "/api/v1/progress/maps_intro", auth.Token, nil)
	defer detailResp.Body.Close()

	var detail dto.ProgressDetailResponse
	s.decode(detailResp, &detail)
	s.Len(detail.StepCompletions, 3)
}

func (s *Suite) TestProgress_RecordStepRejectsBadIndex() {
	auth := s.register("badindex@example.com", "pw123456", "Bad Index")

	resp := s.doJSON("POST", "/api/v1/progress/maps_intro/steps/abc", auth.Token, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp2 := s.doJSON("POST", "/api/v1/progress/maps_intro/steps/-1", auth.Token, nil)
	s.Equal(http.StatusBadRequest, resp2.StatusCode)
	resp2.Body.Close()
}

func (s *Suite) TestProgress_FirstJourneyAchievement() {
	auth := s.register("first@example.com", "pw123456", "First")

	resp := s.doJSON("PUT", "/api/v1/progress/whatsapp_intro", auth.Token, upsertBody(5, true))
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	achResp := s.doJSON("GET", "/api/v1/progress/achievements/all", auth.Token, nil)
	defer achResp.Body.Close()

	var achievements dto.AchievementsResponse
	s.decode(achResp, &achievements)

	s.Require().Len(achievements.Achievements, 1)
	s.Equal("first_journey_complete", achievements.Achievements[0].Type)
}

func (s *Suite) TestProgress_FirstJourneyAchievementGrantedOnce() {
	auth := s.register("once@example.com", "pw123456", "Once")

	// Complete two different journeys; the badge stays singular.
	for _, journey := range []string{"whatsapp_intro", "video_calls"} {
		resp := s.doJSON("PUT", "/api/v1/progress/"+journey, auth.Token, upsertBody(5, true))
		s.Equal(http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	achResp := s.doJSON("GET", "/api/v1/progress/achievements/all", auth.Token, nil)
	defer achResp.Body.Close()

	var achievements dto.AchievementsResponse
	s.decode(achResp, &achievements)

	count := 0
	for _, a := range achievements.Achievements {
		if a.Type == "first_journey_complete" {
			count++
		}
	}
	s.Equal(1, count)
}

func (s *Suite) TestProgress_AllJourneysAchievement() {
	auth := s.register("allofthem@example.com", "pw123456", "All")

	journeys := []string{"j1", "j2", "j3", "j4", "j5", "j6", "j7"}
	for _, journey := range journeys {
		resp := s.doJSON("PUT", "/api/v1/progress/"+journey, auth.Token, upsertBody(1, true))
		s.Equal(http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	achResp := s.doJSON("GET", "/api/v1/progress/achievements/all", auth.Token, nil)
	defer achResp.Body.Close()

	var achievements dto.AchievementsResponse
	s.decode(achResp, &achievements)

	types := make(map[string]bool)
	for _, a := range achievements.Achievements {
		types[a.Type] = true
	}
	s.True(types["first_journey_complete"])
	s.True(types["all_journeys_complete"])
}

func (s *Suite) TestProgress_IncompleteUpsertGrantsNothing() {
	auth := s.register("nothing@example.com", "pw123456", "Nothing")

	resp := s.doJSON("PUT", "/api/v1/progress/whatsapp_intro", auth.Token, upsertBody(6, false))
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	achResp := s.doJSON("GET", "/api/v1/progress/achievements/all", auth.Token, nil)
	defer achResp.Body.Close()

	var achievements dto.AchievementsResponse
	s.decode(achResp, &achievements)
	s.Empty(achievements.Achievements)
}

func (s *Suite) TestProgress_StatsSummary() {
	auth := s.register("stats@example.com", "pw123456", "Stats")

	resp := s.doJSON("PUT", "/api/v1/progress/j1", auth.Token, upsertBody(5, true))
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp2 := s.doJSON("PUT", "/api/v1/progress/j2", auth.Token, upsertBody(2, false))
	s.Equal(http.StatusOK, resp2.StatusCode)
	resp2.Body.Close()

	statsResp := s.doJSON("GET", "/api/v1/progress/stats/summary", auth.Token, nil)
	defer statsResp.Body.Close()

	s.Equal(http.StatusOK, statsResp.StatusCode)

	var stats dto.StatsSummaryResponse
	s.decode(statsResp, &stats)

	s.Equal(2, stats.TotalJourneys)
	s.Equal(1, stats.CompletedJourneys)
	s.Equal(1, stats.InProgressJourneys)
	s.NotNil(stats.LastAccessedAt)
}

func (s *Suite) TestProgress_IsolatedPerUser() {
	alice := s.register("alice-iso@example.com", "pw123456", "Alice")
	bob := s.register("bob-iso@example.com", "pw123456", "Bob")

	resp := s.doJSON("PUT", "/api/v1/progress/shared_journey", alice.Token, upsertBody(3, false))
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	listResp := s.doJSON("GET", "/api/v1/progress", bob.Token, nil)
	defer listResp.Body.Close()

	var list dto.ProgressListResponse
	s.decode(listResp, &list)
	s.Empty(list.Progress)
}

func (s *Suite) TestProgress_RequiresAuth() {
	paths := map[string]string{
		"GET":  "/api/v1/progress",
		"PUT":  "/api/v1/progress/j1",
		"POST": "/api/v1/progress/j1/steps/0",
	}

	for method, path := range paths {
		resp := s.doJSON(method, path, "", nil)
		s.Equal(http.StatusUnauthorized, resp.StatusCode, "%s %s should require auth", method, path)
		resp.Body.Close()
	}
}

// Mirrors the happy path a first-time user walks through.
func (s *Suite) TestProgress_CompleteFlow() {
	auth := s.register("alice@example.com", "pw123456", "Alice")

	meResp := s.doJSON("GET", "/api/v1/auth/me", auth.Token, nil)
	s.Equal(http.StatusOK, meResp.StatusCode)

	var me dto.MeResponse
	s.decode(meResp, &me)
	meResp.Body.Close()
	s.Equal("alice@example.com", me.User.Email)

	resp := s.doJSON("PUT", "/api/v1/progress/whatsapp_intro", auth.Token, upsertBody(2, false))
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp2 := s.doJSON("PUT", "/api/v1/progress/whatsapp_intro", auth.Token, upsertBody(5, true))
	s.Equal(http.StatusOK, resp2.StatusCode)
	resp2.Body.Close()

	achResp := s.doJSON("GET", "/api/v1/progress/achievements/all", auth.Token, nil)
	defer achResp.Body.Close()

	var achievements dto.AchievementsResponse
	s.decode(achResp, &achievements)

	found := false
	for _, a := range achievements.Achievements {
		if a.Type == "first_journey_complete" {
			found = true
		}
	}
	s.True(found, "Expected first_journey_complete achievement")
}
