package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/task-list-service/internal/model"
    "github.com/iliyamo/task-list-service/internal/ordering"
    "github.com/iliyamo/task-list-service/internal/queue"
    "github.com/iliyamo/task-list-service/internal/repository"
)

// ItemHandler serves the task-list CRUD, subtask and reorder endpoints.
// PublishCompleted is the broker hook fired when an item flips to
// completed; it may be nil (tests, broker-less deployments) and its errors
// are logged, never surfaced — the toggle itself has already committed.
type ItemHandler struct {
    Items            ItemStore
    PublishCompleted func(ctx context.Context, ev queue.TaskCompletedEvent) error
}

func NewItemHandler(items ItemStore, publish func(ctx context.Context, ev queue.TaskCompletedEvent) error) *ItemHandler {
    if items == nil {
        panic("nil item store passed to NewItemHandler")
    }
    return &ItemHandler{Items: items, PublishCompleted: publish}
}

// ----- DTOs -----

// createItemReq accepts tags either as a JSON array or as one
// comma-separated string; both normalize to a clean []string.
type createItemReq struct {
    Title    string      `json:"title"`
    Content  string      `json:"content"`
    DueDate  string      `json:"dueDate"`
    Priority string      `json:"priority"`
    Tags     interface{} `json:"tags"`
}

// parseItemID reads the :id route parameter.
func parseItemID(c echo.Context) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    return id, err == nil && id > 0
}

// parseDue accepts RFC3339 or a bare YYYY-MM-DD date.
func parseDue(s string) (*time.Time, bool) {
    s = strings.TrimSpace(s)
    if s == "" {
        return nil, true
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        t = t.UTC()
        return &t, true
    }
    if t, err := time.Parse("2006-01-02", s); err == nil {
        return &t, true
    }
    return nil, false
}

// normalizeTags flattens the accepted tag shapes into a []string with
// blanks dropped.
func normalizeTags(raw interface{}) []string {
    out := []string{}
    switch v := raw.(type) {
    case []interface{}:
        for _, e := range v {
            if s, ok := e.(string); ok {
                if s = strings.TrimSpace(s); s != "" {
                    out = append(out, s)
                }
            }
        }
    case string:
        for _, s := range strings.Split(v, ",") {
            if s = strings.TrimSpace(s); s != "" {
                out = append(out, s)
            }
        }
    }
    return out
}

// Create inserts a new item owned by the caller.  The order key is assigned
// by the store: append at the end of the caller's list.
func (h *ItemHandler) Create(c echo.Context) error {
    ident, err := callerIdentity(c)
    if err != nil {
        return jsonError(c, http.StatusUnauthorized, "unauthorized")
    }
    var req createItemReq
    if err := c.Bind(&req); err != nil {
        return jsonError(c, http.StatusBadRequest, "invalid body")
    }
    req.Title = strings.TrimSpace(req.Title)
    if req.Title == "" {
        return jsonError(c, http.StatusBadRequest, "title required")
    }
    priority := strings.ToLower(strings.TrimSpace(req.Priority))
    if priority == "" {
        priority = model.PriorityMedium
    }
    if !model.ValidPriority(priority) {
        return jsonError(c, http.StatusBadRequest, "invalid priority")
    }
    due, ok := parseDue(req.DueDate)
    if !ok {
        return jsonError(c, http.StatusBadRequest, "invalid due date")
    }

    it := &model.Item{
        OwnerID:  ident.SubjectID,
        Title:    req.Title,
        Content:  req.Content,
        DueDate:  due,
        Priority: priority,
        Tags:     normalizeTags(req.Tags),
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Items.Create(ctx, it); err != nil {
        return jsonError(c, http.StatusInternalServerError, "create item failed")
    }
    return c.JSON(http.StatusCreated, it)
}

// List returns the caller's items.  Filters (q, tag, priority, status)
// narrow the set; sort selects the projection: the persisted manual order
// by default, or the ephemeral priority/due views.  Listing is always
// scoped to the caller — admins included — so no cross-user data appears.
func (h *ItemHandler) List(c echo.Context) error {
    ident, err := callerIdentity(c)
    if err != nil {
        return jsonError(c, http.StatusUnauthorized, "unauthorized")
    }
    filter := repository.ItemFilter{
        Query:    strings.TrimSpace(c.QueryParam("q")),
        Tag:      strings.TrimSpace(c.QueryParam("tag")),
        Priority: strings.ToLower(strings.TrimSpace(c.QueryParam("priority"))),
        Status:   strings.ToLower(strings.TrimSpace(c.QueryParam("status"))),
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    items, err := h.Items.List(ctx, ident.SubjectID, filter)
    if err != nil {
        return jsonError(c, http.StatusInternalServerError, "list items failed")
    }
    return c.JSON(http.StatusOK, ordering.Project(items, c.QueryParam("sort")))
}

// Get fetches one item: 404 for an unknown id, 403 when the caller is
// neither the owner nor an admin.
func (h *ItemHandler) Get(c echo.Context) error {
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
    return c.JSON(http.StatusOK, it)
}
