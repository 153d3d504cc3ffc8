// Package ordering implements the read-side projections over a user's task
// list.  The stored sort_order key is the single source of truth for manual
// ordering; the priority and due-date views computed here are ephemeral
// rearrangements of an in-memory slice and never write anything back.
package ordering

import (
    "sort"
    "time"

    "github.com/iliyamo/task-list-service/internal/model"
)

// Sort mode names as they appear in the ?sort= query parameter.
const (
    SortManual   = "order"
    SortPriority = "priority"
    SortDue      = "due"
)

// maxDue is the sentinel for items without a due date: they sort after
// every real date in the due-date view.
var maxDue = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// PriorityScore maps a priority label to its numeric weight for the
// priority projection.  Unknown or empty labels score zero and therefore
// sort last.
func PriorityScore(p string) int {
    switch p {
    case model.PriorityHigh:
        return 3
    case model.PriorityMedium:
        return 2
    case model.PriorityLow:
        return 1
    default:
        return 0
    }
}

// Project returns the items arranged for the requested sort mode.  The
// input slice is left untouched and item structs are never mutated.  All
// three modes are stable and break ties by most recently updated first, so
// projecting the same set twice yields the same sequence.
//
// Modes:
//   - SortManual (and anything unrecognized): sort_order ascending.  This is
//     the persisted drag order; duplicate sort_order values — possible after
//     racing inserts — fall back to the update-time tie break.
//   - SortPriority: priority score descending.
//   - SortDue: due date ascending, no due date last.
func Project(items []*model.Item, mode string) []*model.Item {
    out := make([]*model.Item, len(items))
    copy(out, items)

    switch mode {
    case SortPriority:
        sort.SliceStable(out, func(i, j int) bool {
            si, sj := PriorityScore(out[i].Priority), PriorityScore(out[j].Priority)
            if si != sj {
                return si > sj
            }
            return out[i].UpdatedAt.After(out[j].UpdatedAt)
        })
    case SortDue:
        sort.SliceStable(out, func(i, j int) bool {
            di, dj := dueOf(out[i]), dueOf(out[j])
            if !di.Equal(dj) {
                return di.Before(dj)
            }
            return out[i].UpdatedAt.After(out[j].UpdatedAt)
        })
    default:
        sort.SliceStable(out, func(i, j int) bool {
            if out[i].SortOrder != out[j].SortOrder {
                return out[i].SortOrder < out[j].SortOrder
            }
            return out[i].UpdatedAt.After(out[j].UpdatedAt)
        })
    }
    return out
}

func dueOf(it *model.Item) time.Time {
    if it.DueDate == nil {
        return maxDue
    }
    return *it.DueDate
}
