package postgres

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/notetree/worker/store"
)

// UpdateNoteByVectorID applies the update to the note keyed by vector id.
func (d *DB) UpdateNoteByVectorID(ctx context.Context, update *store.UpdateNoteByVectorID) error {
	set, args := []string{}, []any{}
	if update.Status != nil {
		set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, *update.Status)
	}
	if update.Category != nil {
		set, args = append(set, "category = "+placeholder(len(args)+1)), append(args, *update.Category)
	}
	if update.VectorReady != nil {
		set, args = append(set, "vector_ready = "+placeholder(len(args)+1)), append(args, *update.VectorReady)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, update.VectorID)

	stmt := "UPDATE note SET " + strings.Join(set, ", ") + " WHERE vector_id = " + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update note")
	}
	return nil
}

// FindNotesByVectorIDs returns the notes whose vector ids are in the set.
func (d *DB) FindNotesByVectorIDs(ctx context.Context, vectorIDs []int64) ([]*store.Note, error) {
	if len(vectorIDs) == 0 {
		return []*store.Note{}, nil
	}

	args := make([]any, len(vectorIDs))
	for i, id := range vectorIDs {
		args[i] = id
	}

	query := `
		SELECT id, uid, vector_id, content, status, category, vector_ready
		FROM note
		WHERE vector_id IN (` + placeholders(0, len(vectorIDs)) + `)
	`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find notes")
	}
	defer rows.Close()

	list := []*store.Note{}
	for rows.Next() {
		var note store.Note
		if err := rows.Scan(
			&note.ID,
			&note.UID,
			&note.VectorID,
			&note.Content,
			&note.Status,
			&note.Category,
			&note.VectorReady,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan note")
		}
		list = append(list, &note)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate notes")
	}
	return list, nil
}
