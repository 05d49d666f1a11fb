package sqlite

import (
	"context"
	"fmt"

	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
)

// TimelineRepository implements timeline.Repository for SQLite. Events are
// only ever inserted.
type TimelineRepository struct {
	db DBTX
}

// NewTimelineRepository creates a new TimelineRepository
func NewTimelineRepository(db DBTX) *TimelineRepository {
	return &TimelineRepository{db: db}
}

// Append inserts a new ledger event and sets its sequence id
func (r *TimelineRepository) Append(ctx context.Context, event *timeline.Event) error {
	query := `
		INSERT INTO timeline_events (
			project_id, date, event, type, user_name, actor_id, from_status, to_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		event.ProjectID,
		ts(event.Date),
		event.Event,
		event.Type,
		event.User,
		event.ActorID,
		event.FromStatus,
		event.ToStatus,
	)
	if err != nil {
		return translateError(err, "failed to append timeline event")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read timeline event id: %w", err)
	}
	event.ID = id
	event.Date = event.Date.UTC()

	return nil
}

// List returns a project's events ordered by date, then insertion sequence
func (r *TimelineRepository) List(ctx context.Context, opts timeline.ListOptions) ([]timeline.Event, error) {
	query := `
		SELECT id, project_id, date, event, type, user_name, actor_id, from_status, to_status
		FROM timeline_events
		WHERE project_id = ?
	`
	args := []any{opts.ProjectID}

	if len(opts.Types) > 0 {
		query += fmt.Sprintf(" AND type IN (%s)", placeholders(len(opts.Types)))
		for _, t := range opts.Types {
			args = append(args, t)
		}
	}

	if opts.Order == timeline.OrderDesc {
		query += " ORDER BY date DESC, id DESC"
	} else {
		query += " ORDER BY date ASC, id ASC"
	}

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		if opts.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline: %w", err)
	}
	defer rows.Close()

	events := []timeline.Event{}
	for rows.Next() {
		var (
			event   timeline.Event
			dateRaw string
		)
		if err := rows.Scan(
			&event.ID,
			&event.ProjectID,
			&dateRaw,
			&event.Event,
			&event.Type,
			&event.User,
			&event.ActorID,
			&event.FromStatus,
			&event.ToStatus,
		); err != nil {
			return nil, fmt.Errorf("failed to scan timeline event: %w", err)
		}
		if event.Date, err = parseTS(dateRaw); err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timeline rows: %w", err)
	}

	return events, nil
}
