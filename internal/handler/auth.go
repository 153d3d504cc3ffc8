package handler

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/task-list-service/internal/auth"
    "github.com/iliyamo/task-list-service/internal/config"
    "github.com/iliyamo/task-list-service/internal/repository"
    "github.com/iliyamo/task-list-service/internal/utils"
)

// AuthHandler bundles dependencies for the credential/token endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  UserStore
    Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
    Name     string `json:"name"`
    Email    string `json:"email"`
    Password string `json:"password"`
    Role     string `json:"role"` // optional; anything but "admin" becomes "user"
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refreshToken"`
}

type userPart struct {
    ID    uint64 `json:"id"`
    Name  string `json:"name"`
    Email string `json:"email"`
    Role  string `json:"role"`
}
type tokenPairResp struct {
    AccessToken  string   `json:"accessToken"`
    RefreshToken string   `json:"refreshToken"`
    User         userPart `json:"user"`
}

// issuePair mints an access token and a refresh token for the user and
// records the refresh token's digest in the store.
func (h *AuthHandler) issuePair(c echo.Context, uid uint64, name, email, role string, status int) error {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, role, h.Cfg.AccessTTLMin)
    if err != nil {
        return jsonError(c, http.StatusInternalServerError, "issue access failed")
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return jsonError(c, http.StatusInternalServerError, "issue refresh failed")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Tokens.StoreRefresh(ctx, uid, utils.HashRefreshRaw(h.Cfg.RefreshSecret, refresh.Raw), refresh.Exp); err != nil {
        return jsonError(c, http.StatusInternalServerError, "save refresh failed")
    }
    return c.JSON(status, tokenPairResp{
        AccessToken:  access.Token,
        RefreshToken: refresh.Raw, // raw goes back to the client; only the digest is stored
        User:         userPart{ID: uid, Name: name, Email: email, Role: role},
    })
}

// Register creates a user and returns a token pair immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return jsonError(c, http.StatusBadRequest, "invalid body")
    }
    req.Name = strings.TrimSpace(req.Name)
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Name == "" || req.Email == "" || req.Password == "" {
        return jsonError(c, http.StatusBadRequest, "name, email and password required")
    }
    role := auth.NormalizeRole(req.Role)

    ctx, cancel := reqCtx(c)
    defer cancel()

    uid, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, role, h.Cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return jsonError(c, http.StatusConflict, "email already exists")
        }
        return jsonError(c, http.StatusInternalServerError, "create user failed")
    }
    return h.issuePair(c, uid, req.Name, req.Email, role, http.StatusCreated)
}

// Login verifies credentials and returns a fresh token pair.  Unknown email
// and wrong password produce the same response.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return jsonError(c, http.StatusBadRequest, "invalid body")
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return jsonError(c, http.StatusBadRequest, "email and password required")
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return jsonError(c, http.StatusUnauthorized, "invalid credentials")
        }
        return jsonError(c, http.StatusInternalServerError, "query failed")
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return jsonError(c, http.StatusUnauthorized, "invalid credentials")
    }
    return h.issuePair(c, u.ID, u.Name, u.Email, u.Role, http.StatusOK)
}

// Refresh exchanges a valid refresh token for a new access token.  The
// refresh token itself is NOT rotated: it stays usable until its own expiry
// or an explicit logout.  Repeat calls with the same token keep succeeding.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return jsonError(c, http.StatusBadRequest, "missing refresh token")
    }
    hash := utils.HashRefreshRaw(h.Cfg.RefreshSecret, strings.TrimSpace(req.RefreshToken))

    ctx, cancel := reqCtx(c)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        if errors.Is(err, repository.ErrInvalidRefresh) {
            return jsonError(c, http.StatusForbidden, "invalid or expired refresh token")
        }
        return jsonError(c, http.StatusInternalServerError, "validate refresh failed")
    }

    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return jsonError(c, http.StatusNotFound, "user not found")
        }
        return jsonError(c, http.StatusInternalServerError, "load user failed")
    }

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return jsonError(c, http.StatusInternalServerError, "issue access failed")
    }
    return c.JSON(http.StatusOK, echo.Map{"accessToken": access.Token})
}

// Logout revokes a refresh token.  With a refreshToken in the body that one
// session ends; revoking a token that is unknown or already revoked is still
// a success (idempotent).  With a valid bearer access token and no body
// token, every session of that user is revoked instead.  With neither, 400.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    _ = c.Bind(&req)
    raw := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := reqCtx(c)
    defer cancel()

    if raw != "" {
        if err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(h.Cfg.RefreshSecret, raw)); err != nil {
            return jsonError(c, http.StatusInternalServerError, "logout failed")
        }
        return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
    }

    // No body token: fall back to the bearer, if one was sent.  This route
    // sits outside the JWT middleware, so the header is parsed here.
    header := c.Request().Header.Get("Authorization")
    if strings.HasPrefix(header, "Bearer ") {
        ident, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(header, "Bearer "))
        if err == nil {
            if err := h.Tokens.RevokeAllForUser(ctx, ident.SubjectID); err != nil {
                return jsonError(c, http.StatusInternalServerError, "logout failed")
            }
            return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
        }
    }
    return jsonError(c, http.StatusBadRequest, "missing refresh token")
}
