package handler

import (
    "errors"
    "net/http"
    "strings"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/task-list-service/internal/model"
    "github.com/iliyamo/task-list-service/internal/repository"
)

type addSubtaskReq struct {
    Title string `json:"title"`
}

// AddSubtask appends a subtask to an item's checklist and returns the whole
// updated item, mirroring the item routes' respond-with-parent contract.
func (h *ItemHandler) AddSubtask(c echo.Context) error {
    ident, err := callerIdentity(c)
    if err != nil {
        return jsonError(c, http.StatusUnauthorized, "unauthorized")
    }
    id, ok := parseItemID(c)
    if !ok {
        return jsonError(c, http.StatusNotFound, "item not found")
    }
    var req addSubtaskReq
    if err := c.Bind(&req); err != nil {
        return jsonError(c, http.StatusBadRequest, "invalid body")
    }
    req.Title = strings.TrimSpace(req.Title)
    if req.Title == "" {
        return jsonError(c, http.StatusBadRequest, "missing title")
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    it, err := loadAuthorized(ctx, c, h.Items, id, ident)
    if it == nil {
        return err
    }

    st := &model.Subtask{ID: uuid.NewString(), Title: req.Title}
    if err := h.Items.AddSubtask(ctx, it.ID, st); err != nil {
        return jsonError(c, http.StatusInternalServerError, "add subtask failed")
    }

    updated, err := h.Items.GetByID(ctx, it.ID)
    if err != nil {
        return jsonError(c, http.StatusInternalServerError, "load item failed")
    }
    return c.JSON(http.StatusOK, updated)
}

// ToggleSubtask flips one subtask's completed flag, addressed by the parent
// item id plus the subtask id.  Both must resolve: a subtask id that lives
// under a different item is a 404.
func (h *ItemHandler) ToggleSubtask(c echo.Context) error {
    ident, err := callerIdentity(c)
    if err != nil {
        return jsonError(c, http.StatusUnauthorized, "unauthorized")
    }
    id, ok := parseItemID(c)
    if !ok {
        return jsonError(c, http.StatusNotFound, "item not found")
    }
    subID := strings.TrimSpace(c.Param("sid"))
    if subID == "" {
        return jsonError(c, http.StatusNotFound, "subtask not found")
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    it, err := loadAuthorized(ctx, c, h.Items, id, ident)
    if it == nil {
        return err
    }

    var current *model.Subtask
    for i := range it.Subtasks {
        if it.Subtasks[i].ID == subID {
            current = &it.Subtasks[i]
            break
        }
    }
    if current == nil {
        return jsonError(c, http.StatusNotFound, "subtask not found")
    }

    if err := h.Items.SetSubtaskCompleted(ctx, it.ID, subID, !current.Completed); err != nil {
        if errors.Is(err, repository.ErrSubtaskNotFound) {
            return jsonError(c, http.StatusNotFound, "subtask not found")
        }
        return jsonError(c, http.StatusInternalServerError, "update subtask failed")
    }

    updated, err := h.Items.GetByID(ctx, it.ID)
    if err != nil {
        return jsonError(c, http.StatusInternalServerError, "load item failed")
    }
    return c.JSON(http.StatusOK, updated)
}
