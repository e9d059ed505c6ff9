package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"kitties/internal/kitty/models"
	txcontext "kitties/pkg/platform/tx"
	"kitties/pkg/requestcontext"
)

const aggregateKitty = "kitty"

// Outbox writes events to the outbox table. When ctx carries a transaction
// the row commits or rolls back with the kitty insert, so an event exists
// exactly when its record does.
type Outbox struct {
	db *sql.DB
}

func NewOutbox(db *sql.DB) *Outbox {
	return &Outbox{db: db}
}

// OutboxEntry is an unpublished outbox row.
type OutboxEntry struct {
	ID          uuid.UUID
	AggregateID string
	EventType   models.EventType
	Payload     []byte
	CreatedAt   time.Time
}

// Emit appends the event to the outbox.
func (o *Outbox) Emit(ctx context.Context, event models.Event) error {
	env, err := NewEnvelope(event)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}
	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = txcontext.Execer(ctx, o.db).ExecContext(ctx, query,
		env.ID,
		aggregateKitty,
		env.AggregateID(),
		string(env.Type),
		payload,
		requestcontext.Now(ctx).UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// FetchUnpublished returns up to limit pending rows, oldest first. Rows are
// locked with SKIP LOCKED so concurrent relays do not double-publish within
// the surrounding transaction.
func (o *Outbox) FetchUnpublished(ctx context.Context, limit int) ([]OutboxEntry, error) {
	query := `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := txcontext.Execer(ctx, o.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var (
			e         OutboxEntry
			eventType string
		)
		if err := rows.Scan(&e.ID, &e.AggregateID, &eventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		e.EventType = models.EventType(eventType)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps the given rows as delivered.
func (o *Outbox) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	query := `UPDATE outbox SET published_at = $1 WHERE id = ANY($2::uuid[])`
	if _, err := txcontext.Execer(ctx, o.db).ExecContext(ctx, query, at, pq.Array(strIDs)); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// Pending counts unpublished rows.
func (o *Outbox) Pending(ctx context.Context) (int, error) {
	var n int
	err := txcontext.Execer(ctx, o.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending outbox entries: %w", err)
	}
	return n, nil
}
