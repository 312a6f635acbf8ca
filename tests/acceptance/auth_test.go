package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/auralearn/companion-api/internal/dto"
)

func (s *Suite) TestRegister_Success() {
	reqBody := dto.RegisterRequest{
		Email:       "test@example.com",
		Password:    "pw123456",
		DisplayName: "Test User",
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/register",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusCreated, resp.StatusCode)

	var authResp dto.AuthResponse
	err = json.NewDecoder(resp.Body).Decode(&authResp)
	s.Require().NoError(err)

	s.Len(authResp.Token, 64)
	s.False(authResp.ExpiresAt.IsZero())
	s.Equal("test@example.com", authResp.User.Email)
	s.Equal("Test User", authResp.User.DisplayName)
	s.Equal("en", authResp.User.PreferredLanguage)
	s.False(authResp.User.OnboardingCompleted)
	s.NotEmpty(authResp.User.ID)
}

func (s *Suite) TestRegister_NormalizesEmail() {
	reqBody := dto.RegisterRequest{
		Email:       "Mixed.Case@Example.COM",
		Password:    "pw123456",
		DisplayName: "Mixed Case",
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/register",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusCreated, resp.StatusCode)

	var authResp dto.AuthResponse
	s.decode(resp, &authResp)
	s.Equal("mixed.case@example.com", authResp.User.Email)
}

func (s *Suite) TestRegister_DuplicateEmail() {
	s.register("duplicate@example.com", "pw123456", "First")

	reqBody := dto.RegisterRequest{
		Email:       "duplicate@example.com",
		Password:    "different123",
		DisplayName: "Second",
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/register",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.decode(resp, &errResp)
	s.Equal("Email already registered", errResp.Message)
}

func (s *Suite) TestRegister_InvalidEmail() {
	reqBody := dto.RegisterRequest{
		Email:       "invalid-email",
		Password:    "pw123456",
		DisplayName: "Invalid",
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/register",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestRegister_ShortPassword() {
	reqBody := dto.RegisterRequest{
		Email:       "short@example.com",
		Password:    "short",
		DisplayName: "Short",
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/register",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestRegister_PasswordHashNeverSerialized() {
	reqBody := dto.RegisterRequest{
		Email:       "nohash@example.com",
		Password:    "pw123456",
		DisplayName: "No Hash",
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/register",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	s.NotContains(strings.ToLower(string(raw)), "password")
	s.NotContains(string(raw), "$2a$")
}

func (s *Suite) TestLogin_Success() {
	s.register("login@example.com", "pw123456", "Login User")

	loginReq := dto.LoginRequest{
		Email:    "login@example.com",
		Password: "pw123456",
	}
	body, _ := json.Marshal(loginReq)

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/login",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var authResp dto.AuthResponse
	s.decode(resp, &authResp)

	s.Len(authResp.Token, 64)
	s.Equal("login@example.com", authResp.User.Email)
}

func (s *Suite) TestLogin_IssuesDistinctSessions() {
	first := s.register("multi@example.com", "pw123456", "Multi")

	loginReq := dto.LoginRequest{
		Email:    "multi@example.com",
		Password: "pw123456",
	}
	body, _ := json.Marshal(loginReq)

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/login",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var second dto.AuthResponse
	s.decode(resp, &second)

	s.NotEqual(first.Token, second.Token)

	// Both sessions remain valid.
	for _, token := range []string{first.Token, second.Token} {
		meResp := s.doJSON("GET", "/api/v1/auth/me", token, nil)
		s.Equal(http.StatusOK, meResp.StatusCode)
		meResp.Body.Close()
	}
}

func (s *Suite) TestLogin_InvalidCredentials() {
	loginReq := dto.LoginRequest{
		Email:    "nonexistent@example.com",
		Password: "wrongpassword",
	}
	body, _ := json.Marshal(loginReq)

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/login",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.decode(resp, &errResp)
	s.Equal("Unauthorized", errResp.Error)
}

func (s *Suite) TestLogin_WrongPassword() {
	s.register("wrongpass@example.com", "correct12345", "Wrong Pass")

	loginReq := dto.LoginRequest{
		Email:    "wrongpass@example.com",
		Password: "incorrect123",
	}
	body, _ := json.Marshal(loginReq)

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/login",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestGetMe_Success() {
	auth := s.register("getme@example.com", "pw123456", "Get Me")

	resp := s.doJSON("GET", "/api/v1/auth/me", auth.Token, nil)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var meResp dto.MeResponse
	s.decode(resp, &meResp)

	s.Equal("getme@example.com", meResp.User.Email)
	s.Equal("Get Me", meResp.User.DisplayName)
	s.NotEmpty(meResp.User.CreatedAt)
	s.Equal("free", meResp.Subscription.Plan)
	s.Equal("active", meResp.Subscription.Status)
}

func (s *Suite) TestGetMe_NoToken() {
	resp := s.doJSON("GET", "/api/v1/auth/me", "", nil)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestGetMe_InvalidToken() {
	resp := s.doJSON("GET", "/api/v1/auth/me", "not-a-real-token", nil)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestGetMe_MalformedAuthorizationHeader() {
	req, _ := http.NewRequest("GET", s.BaseURL+"/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Token abc123")

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestUpdateMe_PartialUpdate() {
	auth := s.register("update@example.com", "pw123456", "Before")

	displayName := "After"
	phone := "+31612345678"
	update := dto.UpdateProfileRequest{
		DisplayName: &displayName,
		PhoneNumber: &phone,
	}

	resp := s.doJSON("PATCH", "/api/v1/auth/me", auth.Token, update)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var userResp dto.UserResponse
	s.decode(resp, &userResp)

	s.Equal("After", userResp.User.DisplayName)
	s.Require().NotNil(userResp.User.PhoneNumber)
	s.Equal("+31612345678", *userResp.User.PhoneNumber)
	// Untouched fields keep their values.
	s.Equal("en", userResp.User.PreferredLanguage)
	s.Equal("update@example.com", userResp.User.Email)
}

func (s *Suite) TestUpdateMe_Language() {
	auth := s.register("lang@example.com", "pw123456", "Lang User")

	lang := "nl"
	resp := s.doJSON("PATCH", "/api/v1/auth/me", auth.Token, dto.UpdateProfileRequest{PreferredLanguage: &lang})
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var userResp dto.UserResponse
	s.decode(resp, &userResp)
	s.Equal("nl", userResp.User.PreferredLanguage)
	s.Equal("Lang User", userResp.User.DisplayName)
}

func (s *Suite) TestCompleteOnboarding_Idempotent() {
	auth := s.register("onboard@example.com", "pw123456", "Onboarder")

	resp := s.doJSON("POST", "/api/v1/auth/complete-onboarding", auth.Token, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var userResp dto.UserResponse
	s.decode(resp, &userResp)
	resp.Body.Close()
	s.True(userResp.User.OnboardingCompleted)

	// A second call succeeds and does not duplicate the badge.
	resp2 := s.doJSON("POST", "/api/v1/auth/complete-onboarding", auth.Token, nil)
	s.Equal(http.StatusOK, resp2.StatusCode)
	resp2.Body.Close()

	achResp := s.doJSON("GET", "/api/v1/progress/achievements/all", auth.Token, nil)
	defer achResp.Body.Close()
	s.Equal(http.StatusOK, achResp.StatusCode)

	var achievements dto.AchievementsResponse
	s.decode(achResp, &achievements)

	count := 0
	for _, a := range achievements.Achievements {
		if a.Type == "onboarding_complete" {
			count++
		}
	}
	s.Equal(1, count)
}

func (s *Suite) TestLogout_Success() {
	auth := s.register("logout@example.com", "pw123456", "Logout User")

	resp := s.doJSON("POST", "/api/v1/auth/logout", auth.Token, nil)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var successResp dto.SuccessResponse
	s.decode(resp, &successResp)
	s.True(successResp.Success)

	// The revoked token no longer authenticates.
	meResp := s.doJSON("GET", "/api/v1/auth/me", auth.Token, nil)
	defer meResp.Body.Close()
	s.Equal(http.StatusUnauthorized, meResp.StatusCode)
}

func (s *Suite) TestLogout_NoToken() {
	resp := s.doJSON("POST", "/api/v1/auth/logout", "", nil)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestLogoutAll_RevokesEverySession() {
	first := s.register("logoutall@example.com", "pw123456", "Everywhere")

	loginReq := dto.LoginRequest{
		Email:    "logoutall@example.com",
		Password: "pw123456",
	}
	body, _ := json.Marshal(loginReq)
	loginResp, err := http.Post(s.BaseURL+"/api/v1/auth/login", "application/json", bytes.NewBuffer(body))
	s.Require().NoError(err)
	var second dto.AuthResponse
	s.decode(loginResp, &second)
	loginResp.Body.Close()

	// Use both tokens first so they land in the session cache; the
	// revocation below must clear the cached entries too.
	for _, token := range []string{first.Token, second.Token} {
		meResp := s.doJSON("GET", "/api/v1/auth/me", token, nil)
		s.Equal(http.StatusOK, meResp.StatusCode)
		meResp.Body.Close()
	}

	resp := s.doJSON("POST", "/api/v1/auth/logout-all", first.Token, nil)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	for _, token := range []string{first.Token, second.Token} {
		meResp := s.doJSON("GET", "/api/v1/auth/me", token, nil)
		s.Equal(http.StatusUnauthorized, meResp.StatusCode)
		meResp.Body.Close()
	}
}

func (s *Suite) TestAuthenticate_ExpiredSessionSelfCleans() {
	auth := s.register("expired@example.com", "pw123456", "Expired")

	_, err := s.Postgres.DB.Exec(
		`UPDATE sessions SET expires_at = now() - interval '1 day' WHERE token = $1`,
		auth.Token,
	)
	s.Require().NoError(err)

	resp := s.doJSON("GET", "/api/v1/auth/me", auth.Token, nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// The expired row is deleted on first use.
	var count int
	err = s.Postgres.DB.QueryRow(`SELECT COUNT(*) FROM sessions WHERE token = $1`, auth.Token).Scan(&count)
	s.Require().NoError(err)
	s.Equal(0, count)

	resp2 := s.doJSON("GET", "/api/v1/auth/me", auth.Token, nil)
	s.Equal(http.StatusUnauthorized, resp2.StatusCode)
	resp2.Body.Close()
}

func (s *Suite) TestAuthenticate_DeletedUser() {
	auth := s.register("ghost@example.com", "pw123456", "Ghost")

	// Warm the session cache so the token outlives the user row; the
	// users delete cascades into sessions.
	meResp := s.doJSON("GET", "/api/v1/auth/me", auth.Token, nil)
	s.Equal(http.StatusOK, meResp.StatusCode)
	meResp.Body.Close()

	_, err := s.Postgres.DB.Exec(`DELETE FROM users WHERE email = $1`, "ghost@example.com")
	s.Require().NoError(err)

	resp := s.doJSON("GET", "/api/v1/auth/me", auth.Token, nil)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.decode(resp, &errResp)
	s.Equal("User not found", errResp.Message)
}
