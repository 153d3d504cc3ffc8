package handler

import (
    "log"
    "net/http"

    "github.com/labstack/echo/v4"
)

type reorderPair struct {
    ID    uint64 `json:"id"`
    Order int    `json:"order"`
}

type reorderReq struct {
    Order []reorderPair `json:"order"`
}

// Reorder applies a batch of manual-order assignments.  Each pair is an
// independent, individually-authorized update: pairs naming items the
// caller does not own (unless admin) or items that do not exist match
// nothing and are skipped without failing the batch.  Application order
// across pairs is insignificant — every update is keyed by item id.
func (h *ItemHandler) Reorder(c echo.Context) error {
    ident, err := callerIdentity(c)
    if err != nil {
        return jsonError(c, http.StatusUnauthorized, "unauthorized")
    }
    var req reorderReq
    if err := c.Bind(&req); err != nil || req.Order == nil {
        return jsonError(c, http.StatusBadRequest, "invalid payload")
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    for _, p := range req.Order {
        if err := h.Items.SetOrder(ctx, p.ID, ident.SubjectID, ident.IsAdmin(), p.Order); err != nil {
            // A storage failure on one pair does not abort the rest.
            log.Printf("reorder: set order for item %d failed: %v", p.ID, err)
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "reordered"})
}
