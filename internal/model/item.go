package model

import "time"

// Priority labels accepted on an item.  The ordering package maps them to
// numeric scores for the priority sort projection; they are stored verbatim.
const (
    PriorityLow    = "low"
    PriorityMedium = "medium"
    PriorityHigh   = "high"
)

// ValidPriority reports whether p is one of the accepted priority labels.
func ValidPriority(p string) bool {
    return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Item is a single task in a user's list.  OwnerID is fixed at creation and
// never changes.  SortOrder is the manual position key, scoped to the owner:
// inserts append at (owner's max + 1) and only explicit reorder operations
// ever rewrite it.  Duplicate SortOrder values between two of an owner's
// items are tolerated (a concurrent-insert race can produce them); rendering
// breaks ties by most recent update.
//
// These structs are serialized directly in API responses, hence the json
// tags.  DueDate is a pointer so "no due date" round-trips as null.
type Item struct {
    ID        uint64     `json:"id"`        // items.id
    OwnerID   uint64     `json:"owner"`     // items.owner_id
    Title     string     `json:"title"`     // items.title
    Content   string     `json:"content"`   // items.content
    Completed bool       `json:"completed"` // items.completed
    DueDate   *time.Time `json:"dueDate"`   // items.due_date (nullable)
    Priority  string     `json:"priority"`  // items.priority
    Tags      []string   `json:"tags"`      // items.tags (JSON column)
    SortOrder int        `json:"order"`     // items.sort_order
    Subtasks  []Subtask  `json:"subtasks"`  // rows of the subtasks table
    CreatedAt time.Time  `json:"createdAt"` // items.created_at
    UpdatedAt time.Time  `json:"updatedAt"` // items.updated_at
}

// Subtask is a checklist entry owned exclusively by its parent item; it is
// created and destroyed only through item mutations and cascades away with
// the item.  IDs are UUID strings assigned at creation.
type Subtask struct {
    ID        string `json:"id"`        // subtasks.id (uuid)
    Title     string `json:"title"`     // subtasks.title
    Completed bool   `json:"completed"` // subtasks.completed
}
