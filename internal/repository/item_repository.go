// This file defines the item repository: owner-scoped CRUD over the 'items'
// table plus its 'subtasks' child rows, and the write side of the ordering
// engine.  The manual order key (sort_order) is assigned inside the INSERT
// itself — (owner's current max + 1) — so appending never needs a separate
// read, and the scope is always the owning user, never the whole table.
// Two racing inserts by the same owner may still pick the same value; that
// is tolerated, reads break ties by most recent update.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/task-list-service/internal/model"
)

// ItemFilter narrows a listing.  Zero values mean "no constraint".
type ItemFilter struct {
	Query    string // case-insensitive substring over title/content/tags
	Tag      string // exact tag membership
	Priority string // low|medium|high
	Status   string // "completed" or "pending"
}

// ItemRepo encapsulates all queries against items and subtasks.
type ItemRepo struct{ DB *sql.DB }

func NewItemRepo(db *sql.DB) *ItemRepo { return &ItemRepo{DB: db} }

const itemCols = "id, owner_id, title, content, completed, due_date, priority, tags, sort_order, created_at, updated_at"

// Create inserts a new item for its owner and appends it to the end of the
// owner's manual order.  On return the struct is fully populated, including
// the assigned id, sort_order and DB-side timestamps.
func (r *ItemRepo) Create(ctx context.Context, it *model.Item) error {
	tags, err := marshalTags(it.Tags)
	if err != nil {
		return err
	}
	// sort_order is computed in the statement, scoped to the owner.
	const qInsert = `INSERT INTO items (owner_id, title, content, completed, due_date, priority, tags, sort_order)
	                 SELECT ?, ?, ?, ?, ?, ?, ?, COALESCE(MAX(i.sort_order)+1, 0)
	                 FROM items i WHERE i.owner_id = ?`
	res, err := r.DB.ExecContext(ctx, qInsert,
		it.OwnerID, it.Title, it.Content, it.Completed, nullTime(it.DueDate), it.Priority, tags, it.OwnerID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	it.ID = uint64(id)

	// Follow-up SELECT to pick up the assigned sort_order and timestamps.
	got, err := r.GetByID(ctx, it.ID)
	if err != nil {
		return err
	}
	*it = *got
	return nil
}

// GetByID fetches one item with its subtasks, regardless of owner.  The
// ownership decision belongs to the caller: handlers return 404 for an
// unknown id and 403 for a known id the caller may not touch.
func (r *ItemRepo) GetByID(ctx context.Context, id uint64) (*model.Item, error) {
	const q = "SELECT " + itemCols + " FROM items WHERE id = ?"
	it, err := scanItem(r.DB.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	subs, err := r.loadSubtasks(ctx, []uint64{it.ID})
	if err != nil {
		return nil, err
	}
	it.Subtasks = subs[it.ID]
	if it.Subtasks == nil {
		it.Subtasks = []model.Subtask{}
	}
	return it, nil
}

// List returns the owner's items matching the filter, in manual order:
// sort_order ascending, ties broken by most recently updated first.  The
// alternate priority/due projections are computed in memory by the ordering
// package and never affect this query.
func (r *ItemRepo) List(ctx context.Context, ownerID uint64, f ItemFilter) ([]*model.Item, error) {
	var (
		where = []string{"owner_id = ?"}
		args  = []interface{}{ownerID}
	)
	if f.Query != "" {
		needle := "%" + strings.ToLower(f.Query) + "%"
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(tags) LIKE ?)")
		args = append(args, needle, needle, needle)
	}
	if f.Tag != "" {
		where = append(where, "JSON_CONTAINS(tags, JSON_QUOTE(?))")
		args = append(args, f.Tag)
	}
	if f.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, f.Priority)
	}
	switch f.Status {
	case "completed":
		where = append(where, "completed = TRUE")
	case "pending":
		where = append(where, "completed = FALSE")
	}

	q := "SELECT " + itemCols + " FROM items WHERE " + strings.Join(where, " AND ") +
		" ORDER BY sort_order ASC, updated_at DESC"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*model.Item{}
	ids := []uint64{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		it.Subtasks = []model.Subtask{}
		items = append(items, it)
		ids = append(ids, it.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return items, nil
	}

	subs, err := r.loadSubtasks(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if s := subs[it.ID]; s != nil {
			it.Subtasks = s
		}
	}
	return items, nil
}

// Update rewrites the mutable fields of an item (title, content, completed,
// due date, priority, tags) and bumps updated_at.  Owner and sort_order are
// untouched — the owner is immutable and the order key only moves through
// SetOrder.  The struct is refreshed from the row afterwards.
func (r *ItemRepo) Update(ctx context.Context, it *model.Item) error {
	tags, err := marshalTags(it.Tags)
	if err != nil {
		return err
	}
	const q = `UPDATE items SET title=?, content=?, completed=?, due_date=?, priority=?, tags=?, updated_at=NOW()
	           WHERE id=?`
	if _, err := r.DB.ExecContext(ctx, q,
		it.Title, it.Content, it.Completed, nullTime(it.DueDate), it.Priority, tags, it.ID); err != nil {
		return err
	}
	// The follow-up read also catches an id that matched nothing.
	got, err := r.GetByID(ctx, it.ID)
	if err != nil {
		return err
	}
	*it = *got
	return nil
}

// Delete removes an item; subtask rows cascade away with it.
func (r *ItemRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM items WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// AddSubtask appends a subtask at the end of the item's checklist.  The
// position is computed in the insert the same way item sort_order is.
func (r *ItemRepo) AddSubtask(ctx context.Context, itemID uint64, st *model.Subtask) error {
	const q = `INSERT INTO subtasks (id, item_id, title, completed, position)
	           SELECT ?, ?, ?, FALSE, COALESCE(MAX(s.position)+1, 0)
	           FROM subtasks s WHERE s.item_id = ?`
	if _, err := r.DB.ExecContext(ctx, q, st.ID, itemID, st.Title, itemID); err != nil {
		return err
	}
	// The parent's updated_at reflects subtask mutations too.
	_, err := r.DB.ExecContext(ctx, "UPDATE items SET updated_at=NOW() WHERE id=?", itemID)
	return err
}

// SetSubtaskCompleted flips one subtask's completed flag.  The subtask must
// belong to the given item; a stray id under another item is not found.
func (r *ItemRepo) SetSubtaskCompleted(ctx context.Context, itemID uint64, subtaskID string, completed bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE subtasks SET completed=? WHERE id=? AND item_id=?",
		completed, subtaskID, itemID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Distinguish an unchanged flag from a missing row.
		var exists bool
		err := r.DB.QueryRowContext(ctx,
			"SELECT TRUE FROM subtasks WHERE id=? AND item_id=? LIMIT 1",
			subtaskID, itemID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSubtaskNotFound
		}
		if err != nil {
			return err
		}
	}
	_, err = r.DB.ExecContext(ctx, "UPDATE items SET updated_at=NOW() WHERE id=?", itemID)
	return err
}

// SetOrder applies one pair of a reorder batch.  The update is conditionally
// scoped: a plain user can only move rows they own, an admin can move any
// row.  A pair that matches nothing — unknown id or someone else's item —
// affects zero rows and is deliberately not an error; the batch contract is
// partial success, one independent update per pair.
func (r *ItemRepo) SetOrder(ctx context.Context, itemID, callerID uint64, admin bool, order int) error {
	if admin {
		_, err := r.DB.ExecContext(ctx,
			"UPDATE items SET sort_order=? WHERE id=?", order, itemID)
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE items SET sort_order=? WHERE id=? AND owner_id=?", order, itemID, callerID)
	return err
}

// loadSubtasks fetches the subtasks for a set of items in one query, in
// checklist order, grouped by item id.
func (r *ItemRepo) loadSubtasks(ctx context.Context, itemIDs []uint64) (map[uint64][]model.Subtask, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(itemIDs)), ",")
	args := make([]interface{}, len(itemIDs))
	for i, id := range itemIDs {
		args[i] = id
	}
	q := "SELECT item_id, id, title, completed FROM subtasks WHERE item_id IN (" + placeholders + ") ORDER BY item_id, position"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint64][]model.Subtask, len(itemIDs))
	for rows.Next() {
		var (
			itemID uint64
			st     model.Subtask
		)
		if err := rows.Scan(&itemID, &st.ID, &st.Title, &st.Completed); err != nil {
			return nil, err
		}
		out[itemID] = append(out[itemID], st)
	}
	return out, rows.Err()
}

// rowScanner lets scanItem accept both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	var (
		it   model.Item
		due  sql.NullTime
		tags sql.NullString
	)
	if err := row.Scan(&it.ID, &it.OwnerID, &it.Title, &it.Content, &it.Completed,
		&due, &it.Priority, &tags, &it.SortOrder, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	if due.Valid {
		t := due.Time
		it.DueDate = &t
	}
	it.Tags = []string{}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &it.Tags); err != nil {
			return nil, err
		}
	}
	return &it, nil
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
