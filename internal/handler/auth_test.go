package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/task-list-service/internal/config"
	"github.com/iliyamo/task-list-service/internal/model"
	"github.com/iliyamo/task-list-service/internal/repository"
	"github.com/iliyamo/task-list-service/internal/utils"
)

// ----- mock stores -----

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error) {
	args := m.Called(ctx, name, email, password, role, cost)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUserStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

type mockTokenStore struct {
	mock.Mock
}

func (m *mockTokenStore) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	args := m.Called(ctx, userID, tokenHash, exp)
	return args.Error(0)
}

func (m *mockTokenStore) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockTokenStore) RevokeByHash(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *mockTokenStore) RevokeAllForUser(ctx context.Context, userID uint64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// ----- helpers -----

func testCfg() config.Config {
	return config.Config{
		Env:            "test",
		JWTSecret:      "access-secret",
		RefreshSecret:  "refresh-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 30,
		BcryptCost:     4, // bcrypt.MinCost keeps the tests fast
	}
}

func jsonCtx(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// ----- register -----

func TestRegisterIssuesTokenPair(t *testing.T) {
	users := new(mockUserStore)
	tokens := new(mockTokenStore)
	h := NewAuthHandler(testCfg(), users, tokens)

	users.On("Create", mock.Anything, "Alice", "a@x.com", "secret1", "user", 4).Return(uint64(9), nil)
	tokens.On("StoreRefresh", mock.Anything, uint64(9), mock.Anything, mock.Anything).Return(nil)

	c, rec := jsonCtx(http.MethodPost, "/v1/auth/register",
		`{"name":"Alice","email":"A@X.com","password":"secret1"}`)
	require.NoError(t, h.Register(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["accessToken"])
	assert.NotEmpty(t, body["refreshToken"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, "user", user["role"])
	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := new(mockUserStore)
	tokens := new(mockTokenStore)
	h := NewAuthHandler(testCfg(), users, tokens)

	users.On("Create", mock.Anything, "Alice", "a@x.com", "secret1", "user", 4).
		Return(uint64(0), repository.ErrEmailExists)

	c, rec := jsonCtx(http.MethodPost, "/v1/auth/register",
		`{"name":"Alice","email":"a@x.com","password":"secret1"}`)
	require.NoError(t, h.Register(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	tokens.AssertNotCalled(t, "StoreRefresh", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterMissingFields(t *testing.T) {
	users := new(mockUserStore)
	h := NewAuthHandler(testCfg(), users, new(mockTokenStore))

	for _, body := range []string{
		`{"email":"a@x.com","password":"p"}`,
		`{"name":"Alice","password":"p"}`,
		`{"name":"Alice","email":"a@x.com"}`,
	} {
		c, rec := jsonCtx(http.MethodPost, "/v1/auth/register", body)
		require.NoError(t, h.Register(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body=%s", body)
	}
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterCoercesUnknownRole(t *testing.T) {
	users := new(mockUserStore)
	tokens := new(mockTokenStore)
	h := NewAuthHandler(testCfg(), users, tokens)

	// Whatever the client sends, only user/admin exist; "root" becomes user.
	users.On("Create", mock.Anything, "Eve", "e@x.com", "p", "user", 4).Return(uint64(3), nil)
	tokens.On("StoreRefresh", mock.Anything, uint64(3), mock.Anything, mock.Anything).Return(nil)

	c, rec := jsonCtx(http.MethodPost, "/v1/auth/register",
		`{"name":"Eve","email":"e@x.com","password":"p","role":"root"}`)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	users.AssertExpectations(t)
}

// ----- login -----

func storedUser(t *testing.T, password string) model.User {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
	require.NoError(t, err)
	return model.User{ID: 9, Name: "Alice", Email: "a@x.com", PasswordHash: hash, Role: "user"}
}

func TestLoginSuccess(t *testing.T) {
	users := new(mockUserStore)
	tokens := new(mockTokenStore)
	h := NewAuthHandler(testCfg(), users, tokens)

	users.On("GetByEmail", mock.Anything, "a@x.com").Return(storedUser(t, "secret1"), nil)
	tokens.On("StoreRefresh", mock.Anything, uint64(9), mock.Anything, mock.Anything).Return(nil)

	c, rec := jsonCtx(http.MethodPost, "/v1/auth/login", `{"email":"a@x.com","password":"secret1"}`)
	require.NoError(t, h.Login(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["accessToken"])
	assert.NotEmpty(t, body["refreshToken"])
}

func TestLoginWrongPassword(t *testing.T) {
	users := new(mockUserStore)
	tokens := new(mockTokenStore)
	h := NewAuthHandler(testCfg(), users, tokens)

	users.On("GetByEmail", mock.Anything, "a@x.com").Return(storedUser(t, "secret1"), nil)

	c, rec := jsonCtx(http.MethodPost, "/v1/auth/login", `{"email":"a@x.com","password":"wrong"}`)
	require.NoError(t, h.Login(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
	tokens.AssertNotCalled(t, "StoreRefresh", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginUnknownEmailSameMessage(t *testing.T) {
	users := new(mockUserStore)
	h := NewAuthHandler(testCfg(), users, new(mockTokenStore))

	users.On("GetByEmail", mock.Anything, "ghost@x.com").
		Return(model.User{}, repository.ErrUserNotFound)

	c, rec := jsonCtx(http.MethodPost, "/v1/auth/login", `{"email":"ghost@x.com","password":"whatever"}`)
	require.NoError(t, h.Login(c))

	// Same status and message as a wrong password: the response never says
	// which of email/password was wrong.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
}

// ----- refresh -----

func TestRefreshMissingToken(t *testing.T) {
	h := NewAuthHandler(testCfg(), new(mockUserStore), new(mockTokenStore))
	c, rec := jsonCtx(http.MethodPost, "/v1/auth/refresh", `{}`)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshUnknownToken(t *testing.T) {
	users := new(mockUserStore)
	tokens := new(mockTokenStore)
	h := NewAuthHandler(testCfg(), users, tokens)

	tokens.On("ValidateRefresh", mock.Anything, mock.Anything).
		Return(uint64(0), repository.ErrInvalidRefresh)

	c, rec := jsonCtx(http.MethodPost, "/v1/auth/refresh", `{"refreshToken":"never-issued"}`)
	require.NoError(t, h.Refresh(c))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestRefreshDoesNotRotate(t *testing.T) {
	users := new(mockUserStore)
	tokens := new(mockTokenStore)
	cfg := testCfg()
	h := NewAuthHandler(cfg, users, tokens)

	raw := "long-lived-refresh-token"
	hash := utils.HashRefreshRaw(cfg.RefreshSecret, raw)
	tokens.On("ValidateRefresh", mock.Anything, hash).Return(uint64(9), nil)
	users.On("GetByID", mock.Anything, uint64(9)).Return(storedUser(t, "secret1"), nil)

	// Repeated refreshes with the same token keep succeeding: the token is
	// never rotated, never revoked, and no new refresh row is written.
	for i := 0; i < 3; i++ {
		c, rec := jsonCtx(http.MethodPost, "/v1/auth/refresh", `{"refreshToken":"`+raw+`"}`)
		require.NoError(t, h.Refresh(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.NotEmpty(t, body["accessToken"])
		assert.NotContains(t, body, "refreshToken")
	}
	tokens.AssertNotCalled(t, "RevokeByHash", mock.Anything, mock.Anything)
	tokens.AssertNotCalled(t, "StoreRefresh", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshPrincipalGone(t *testing.T) {
	users := new(mockUserStore)
	tokens := new(mockTokenStore)
	h := NewAuthHandler(testCfg(), users, tokens)

	tokens.On("ValidateRefresh", mock.Anything, mock.Anything).Return(uint64(9), nil)
	users.On("GetByID", mock.Anything, uint64(9)).Return(model.User{}, repository.ErrUserNotFound)

	c, rec := jsonCtx(http.MethodPost, "/v1/auth/refresh", `{"refreshToken":"orphaned"}`)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ----- logout -----

func TestLogoutRevokesToken(t *testing.T) {
	tokens := new(mockTokenStore)
	cfg := testCfg()
	h := NewAuthHandler(cfg, new(mockUserStore), tokens)

	hash := utils.HashRefreshRaw(cfg.RefreshSecret, "session-token")
	tokens.On("RevokeByHash", mock.Anything, hash).Return(nil)

	c, rec := jsonCtx(http.MethodPost, "/v1/auth/logout", `{"refreshToken":"session-token"}`)
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	tokens.AssertExpectations(t)
}

func TestLogoutMissingToken(t *testing.T) {
	h := NewAuthHandler(testCfg(), new(mockUserStore), new(mockTokenStore))
	c, rec := jsonCtx(http.MethodPost, "/v1/auth/logout", `{}`)
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutWithBearerRevokesAllSessions(t *testing.T) {
	tokens := new(mockTokenStore)
	cfg := testCfg()
	h := NewAuthHandler(cfg, new(mockUserStore), tokens)

	tokens.On("RevokeAllForUser", mock.Anything, uint64(9)).Return(nil)

	access, err := utils.NewAccessToken(cfg.JWTSecret, 9, "user", cfg.AccessTTLMin)
	require.NoError(t, err)

	c, rec := jsonCtx(http.MethodPost, "/v1/auth/logout", `{}`)
	c.Request().Header.Set("Authorization", "Bearer "+access.Token)
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	tokens.AssertExpectations(t)
}

// ----- full lifecycle against a stateful token store -----

// memTokenStore is a tiny in-memory TokenStore used to exercise the
// logout-then-refresh sequence end to end.
type memTokenStore struct {
	rows map[string]memTokenRow
}

type memTokenRow struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

func newMemTokenStore() *memTokenStore { return &memTokenStore{rows: map[string]memTokenRow{}} }

func (s *memTokenStore) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	s.rows[hash] = memTokenRow{userID: userID, exp: exp}
	return nil
}

func (s *memTokenStore) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	row, ok := s.rows[hash]
	if !ok || row.revoked || time.Now().UTC().After(row.exp) {
		return 0, repository.ErrInvalidRefresh
	}
	return row.userID, nil
}

func (s *memTokenStore) RevokeByHash(_ context.Context, hash string) error {
	if row, ok := s.rows[hash]; ok {
		row.revoked = true
		s.rows[hash] = row
	}
	return nil
}

func (s *memTokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	for h, row := range s.rows {
		if row.userID == userID {
			row.revoked = true
			s.rows[h] = row
		}
	}
	return nil
}

func TestLogoutInvalidatesRefresh(t *testing.T) {
	users := new(mockUserStore)
	tokens := newMemTokenStore()
	cfg := testCfg()
	h := NewAuthHandler(cfg, users, tokens)

	users.On("GetByEmail", mock.Anything, "a@x.com").Return(storedUser(t, "secret1"), nil)
	users.On("GetByID", mock.Anything, uint64(9)).Return(storedUser(t, "secret1"), nil)

	// Login to obtain a real refresh token.
	c, rec := jsonCtx(http.MethodPost, "/v1/auth/login", `{"email":"a@x.com","password":"secret1"}`)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)
	raw := decodeBody(t, rec)["refreshToken"].(string)
	require.NotEmpty(t, raw)

	// The token refreshes fine before logout.
	c, rec = jsonCtx(http.MethodPost, "/v1/auth/refresh", `{"refreshToken":"`+raw+`"}`)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Logout revokes it; logging out again is still a 200 (idempotent).
	for i := 0; i < 2; i++ {
		c, rec = jsonCtx(http.MethodPost, "/v1/auth/logout", `{"refreshToken":"`+raw+`"}`)
		require.NoError(t, h.Logout(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	// And refreshing with the revoked token now fails.
	c, rec = jsonCtx(http.MethodPost, "/v1/auth/refresh", `{"refreshToken":"`+raw+`"}`)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
