// Package queue defines message payloads exchanged over the message broker.
package queue

// TaskCompletedEvent is published when an item is toggled to completed.  It
// carries enough information for downstream consumers to log, notify, or
// feed analytics without querying the primary database.
type TaskCompletedEvent struct {
    ItemID      uint64   `json:"item_id"`
    OwnerID     uint64   `json:"owner_id"`
    Title       string   `json:"title"`
    Priority    string   `json:"priority"`
    Tags        []string `json:"tags"`
    CompletedAt string   `json:"completed_at"`
}
