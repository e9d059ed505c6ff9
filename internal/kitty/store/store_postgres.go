package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"kitties/internal/kitty/models"
	id "kitties/pkg/domain"
	"kitties/pkg/platform/sentinel"
	txcontext "kitties/pkg/platform/tx"
	"kitties/pkg/requestcontext"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// PostgresStore persists kitties in the kitties table. Queries run on the
// transaction carried in ctx when present so the insert can share a commit
// with its outbox entry.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByDNA(ctx context.Context, dna id.DNA) (*models.Kitty, error) {
	query := `SELECT dna, owner, gender FROM kitties WHERE dna = $1`
	var (
		rawDNA, rawOwner []byte
		gender           int16
	)
	err := txcontext.Execer(ctx, s.db).QueryRowContext(ctx, query, dna[:]).Scan(&rawDNA, &rawOwner, &gender)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find kitty by dna: %w", err)
	}
	return toKitty(rawDNA, rawOwner, gender)
}

func (s *PostgresStore) Contains(ctx context.Context, dna id.DNA) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM kitties WHERE dna = $1)`
	var exists bool
	if err := txcontext.Execer(ctx, s.db).QueryRowContext(ctx, query, dna[:]).Scan(&exists); err != nil {
		return false, fmt.Errorf("check kitty exists: %w", err)
	}
	return exists, nil
}

// Insert relies on the primary key: a concurrent insert of the same DNA
// surfaces as sentinel.ErrAlreadyUsed rather than overwriting.
func (s *PostgresStore) Insert(ctx context.Context, kitty *models.Kitty) error {
	if kitty == nil {
		return sentinel.ErrInvalidState
	}
	query := `
		INSERT INTO kitties (dna, owner, gender, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := txcontext.Execer(ctx, s.db).ExecContext(ctx, query,
		kitty.DNA[:],
		kitty.Owner[:],
		int16(kitty.Gender),
		requestcontext.Now(ctx).UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert kitty: %w", err)
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := txcontext.Execer(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM kitties`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count kitties: %w", err)
	}
	return n, nil
}

// Ping reports whether the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

func toKitty(rawDNA, rawOwner []byte, gender int16) (*models.Kitty, error) {
	if len(rawDNA) != id.HashLength || len(rawOwner) != id.HashLength {
		return nil, fmt.Errorf("stored kitty has malformed keys: %w", sentinel.ErrInvalidState)
	}
	g := models.Gender(gender)
	if g != models.GenderMale && g != models.GenderFemale {
		return nil, fmt.Errorf("stored kitty has gender %d: %w", gender, sentinel.ErrInvalidState)
	}
	return &models.Kitty{
		DNA:    id.DNA(rawDNA),
		Owner:  id.AccountID(rawOwner),
		Gender: g,
	}, nil
}
