package handler // handler defines http handlers

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/task-list-service/internal/auth"
    "github.com/iliyamo/task-list-service/internal/middleware"
    "github.com/iliyamo/task-list-service/internal/model"
    "github.com/iliyamo/task-list-service/internal/repository"
)

// The handlers depend on these narrow store contracts rather than on the
// concrete repositories, so tests can substitute fakes.  The repository
// types satisfy them as-is.

// UserStore is the slice of UserRepo the auth handlers need.
type UserStore interface {
    Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error)
    GetByEmail(ctx context.Context, email string) (model.User, error)
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore is the refresh-token registry as seen by the auth handlers.
type TokenStore interface {
    StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
    ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
    RevokeByHash(ctx context.Context, tokenHash string) error
    RevokeAllForUser(ctx context.Context, userID uint64) error
}

// ItemStore is the item persistence surface used by the item handlers.
type ItemStore interface {
    Create(ctx context.Context, it *model.Item) error
    GetByID(ctx context.Context, id uint64) (*model.Item, error)
    List(ctx context.Context, ownerID uint64, f repository.ItemFilter) ([]*model.Item, error)
    Update(ctx context.Context, it *model.Item) error
    Delete(ctx context.Context, id uint64) error
    AddSubtask(ctx context.Context, itemID uint64, st *model.Subtask) error
    SetSubtaskCompleted(ctx context.Context, itemID uint64, subtaskID string, completed bool) error
    SetOrder(ctx context.Context, itemID, callerID uint64, admin bool, order int) error
}

// errNoIdentity is returned by callerIdentity on routes that somehow run
// without the JWT gate; handlers answer 401.
var errNoIdentity = errors.New("no identity in context")

// callerIdentity fetches the identity the authentication gate stored.
func callerIdentity(c echo.Context) (auth.Identity, error) {
    ident, ok := middleware.IdentityFrom(c)
    if !ok {
        return auth.Identity{}, errNoIdentity
    }
    return ident, nil
}

// reqCtx bounds the duration of database calls made while serving a request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// jsonError writes the uniform {"error": msg} failure body.
func jsonError(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"error": msg})
}

// loadAuthorized resolves an item and applies the access policy: unknown id
// is 404, known id without rights is 403.  Every single-item route funnels
// through here, so the ownership rule cannot drift between operations.
// On failure the response has already been written; callers do
// `if it == nil { return err }`.
func loadAuthorized(ctx context.Context, c echo.Context, items ItemStore, id uint64, ident auth.Identity) (*model.Item, error) {
    it, err := items.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrItemNotFound) {
            return nil, jsonError(c, http.StatusNotFound, "item not found")
        }
        return nil, jsonError(c, http.StatusInternalServerError, "load item failed")
    }
    if !auth.CanAccess(ident, it.OwnerID) {
        return nil, jsonError(c, http.StatusForbidden, "forbidden")
    }
    return it, nil
}
