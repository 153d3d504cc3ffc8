package handler

import (
    "log"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/task-list-service/internal/model"
    "github.com/iliyamo/task-list-service/internal/queue"
)

// updateItemReq uses pointers so an absent field means "leave unchanged";
// only fields present in the body are applied.
type updateItemReq struct {
    Title    *string     `json:"title"`
    Content  *string     `json:"content"`
    DueDate  *string     `json:"dueDate"`
    Priority *string     `json:"priority"`
    Tags     interface{} `json:"tags"`
}

// Update rewrites the mutable fields of an item the caller may touch.
func (h *ItemHandler) Update(c echo.Context) error {
    ident, err := callerIdentity(c)
    if err != nil {
        return jsonError(c, http.StatusUnauthorized, "unauthorized")
    }
    id, ok := parseItemID(c)
    if !ok {
        return jsonError(c, http.StatusNotFound, "item not found")
    }
    var req updateItemReq
    if err := c.Bind(&req); err != nil {
        return jsonError(c, http.StatusBadRequest, "invalid body")
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    it, err := loadAuthorized(ctx, c, h.Items, id, ident)
    if it == nil {
        return err
    }

    if req.Title != nil {
        t := strings.TrimSpace(*req.Title)
        if t == "" {
            return jsonError(c, http.StatusBadRequest, "title required")
        }
        it.Title = t
    }
    if req.Content != nil {
        it.Content = *req.Content
    }
    if req.DueDate != nil {
        due, ok := parseDue(*req.DueDate)
        if !ok {
            return jsonError(c, http.StatusBadRequest, "invalid due date")
        }
        it.DueDate = due
    }
    if req.Priority != nil {
        p := strings.ToLower(strings.TrimSpace(*req.Priority))
        if !model.ValidPriority(p) {
            return jsonError(c, http.StatusBadRequest, "invalid priority")
        }
        it.Priority = p
    }
    if req.Tags != nil {
        it.Tags = normalizeTags(req.Tags)
    }

    if err := h.Items.Update(ctx, it); err != nil {
        return jsonError(c, http.StatusInternalServerError, "update item failed")
    }
    return c.JSON(http.StatusOK, it)
}

// ToggleComplete flips the completed flag.  When the flip lands on
// completed, a task.completed event goes to the broker; publish failures
// are logged and swallowed because the toggle has already been stored.
func (h *ItemHandler) ToggleComplete(c echo.Context) error {
    ident, err := callerIdentity(c)
    if err != nil {
        return jsonError(c, http.StatusUnauthorized, "unauthorized")
    }
    id, ok := parseItemID(c)
    if !ok {
        return jsonError(c, http.StatusNotFound, "item not found")
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    it, err := loadAuthorized(ctx, c, h.Items, id, ident)
    if it == nil {
        return err
    }

    it.Completed = !it.Completed
    if err := h.Items.Update(ctx, it); err != nil {
        return jsonError(c, http.StatusInternalServerError, "update item failed")
    }

    if it.Completed && h.PublishCompleted != nil {
        ev := queue.TaskCompletedEvent{
            ItemID:      it.ID,
            OwnerID:     it.OwnerID,
            Title:       it.Title,
            Priority:    it.Priority,
            Tags:        it.Tags,
            CompletedAt: time.Now().UTC().Format(time.RFC3339),
        }
        if err := h.PublishCompleted(ctx, ev); err != nil {
            log.Printf("publish task.completed for item %d failed: %v", it.ID, err)
        }
    }
    return c.JSON(http.StatusOK, it)
}

// Delete removes an item the caller may touch.
func (h *ItemHandler) Delete(c echo.Context) error {
    ident, err := callerIdentity(c)
    if err != nil {
        return jsonError(c, http.StatusUnauthorized, "unauthorized")
    }
    id, ok := parseItemID(c)
    if !ok {
        return jsonError(c, http.StatusNotFound, "item not found")
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    it, err := loadAuthorized(ctx, c, h.Items, id, ident)
    if it == nil {
        return err
    }

    if err := h.Items.Delete(ctx, it.ID); err != nil {
        return jsonError(c, http.StatusInternalServerError, "delete item failed")
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
