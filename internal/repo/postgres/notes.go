package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/noteflow/internal/domain/note"
	"github.com/geocoder89/noteflow/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const noteColumns = `id, user_id, title, content, category, is_pinned, created_at, updated_at`

type NotesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewNotesRepo(pool *pgxpool.Pool, prom *observability.Prom) *NotesRepo {
	return &NotesRepo{pool: pool, prom: prom}
}

func scanNote(row pgx.Row, n *note.Note) error {
	return row.Scan(
		&n.ID,
		&n.OwnerID,
		&n.Title,
		&n.Content,
		&n.Category,
		&n.IsPinned,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
}

func (r *NotesRepo) Create(ctx context.Context, n note.Note) (note.Note, error) {
	err := r.prom.ObserveDB("notes.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO notes (`+noteColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			n.ID, n.OwnerID, n.Title, n.Content, n.Category, n.IsPinned, n.CreatedAt, n.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return note.Note{}, err
	}

	return n, nil
}

// ListByOwner returns every note of ownerID, most recently updated first.
func (r *NotesRepo) ListByOwner(ctx context.Context, ownerID string) ([]note.Note, error) {
	output := make([]note.Note, 0)

	err := r.prom.ObserveDB("notes.list_by_owner", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+noteColumns+`
			FROM notes
			WHERE user_id = $1
			ORDER BY updated_at DESC, created_at DESC, id DESC`,
			ownerID,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var n note.Note

			err = scanNote(rows, &n)
			if err != nil {
				return err
			}

			output = append(output, n)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}

func (r *NotesRepo) GetByID(ctx context.Context, id string) (note.Note, error) {
	var n note.Note

	err := r.prom.ObserveDB("notes.get", func() error {
		return scanNote(r.pool.QueryRow(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id), &n)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return note.Note{}, note.ErrNotFound
		}
		if IsInvalidText(err) {
			return note.Note{}, fmt.Errorf("%w: %q", note.ErrInvalidID, id)
		}
		return note.Note{}, err
	}

	return n, nil
}

// Update writes the mutable fields of n. The owner is part of the predicate
// so a row can only be changed by the user it belongs to.
func (r *NotesRepo) Update(ctx context.Context, n note.Note) (note.Note, error) {
	var out note.Note

	err := r.prom.ObserveDB("notes.update", func() error {
		return scanNote(r.pool.QueryRow(ctx,
			`UPDATE notes
			SET title = $3,
					content = $4,
					category = $5,
					is_pinned = $6,
					updated_at = NOW()
			WHERE id = $1 AND user_id = $2
			RETURNING `+noteColumns,
			n.ID,
			n.OwnerID,
			n.Title,
			n.Content,
			n.Category,
			n.IsPinned,
		), &out)
	})

	if err != nil {
		// the row vanished between read and write
		if errors.Is(err, pgx.ErrNoRows) {
			return note.Note{}, note.ErrNotFound
		}
		return note.Note{}, err
	}

	return out, nil
}

func (r *NotesRepo) Delete(ctx context.Context, id, ownerID string) error {
	var affected int64

	err := r.prom.ObserveDB("notes.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, ownerID)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return note.ErrNotFound
	}

	return nil
}
