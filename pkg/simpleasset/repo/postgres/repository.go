package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-asset/pkg/simpleasset"
)

// DBTX is an interface that allows us to use either a database connection or
// a transaction. Callers that need resolution to commit atomically with their
// own writes construct the repository over a pgx.Tx and bind it with
// Service.Session; the repository never commits or rolls back.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements simpleasset.Repository using PostgreSQL. Checksum
// uniqueness among active assets is enforced by the partial unique index on
// (owner_id, checksum) WHERE deleted_at IS NULL; see migrations/postgres.
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository over a connection, pool, or
// transaction
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// handlePostgresError maps driver errors onto the library's error taxonomy.
// The unique-violation case is load-bearing: the uploader treats it as "a
// concurrent writer won" and re-reads instead of failing.
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "checksum") {
				return simpleasset.ErrDuplicateChecksum
			}
			return fmt.Errorf("duplicate entry")
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return simpleasset.ErrAssetNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) CreateAsset(ctx context.Context, asset *simpleasset.Asset) error {
	query := `
		INSERT INTO asset (
			id, owner_id, category, checksum, checksum_algorithm,
			public_url, object_key, storage_backend_name, mime_type,
			byte_size, file_name, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, query,
		asset.ID, asset.OwnerID, asset.Category, asset.Checksum, asset.ChecksumAlgorithm,
		asset.PublicURL, asset.ObjectKey, asset.StorageBackendName, asset.MimeType,
		asset.ByteSize, asset.FileName, asset.CreatedAt, asset.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("create asset", err)
	}

	return nil
}

const assetColumns = `
	id, owner_id, category, checksum, checksum_algorithm,
	public_url, object_key, storage_backend_name, mime_type,
	byte_size, file_name, created_at, updated_at, deleted_at`

func scanAsset(row pgx.Row) (*simpleasset.Asset, error) {
	var asset simpleasset.Asset
	err := row.Scan(
		&asset.ID, &asset.OwnerID, &asset.Category, &asset.Checksum, &asset.ChecksumAlgorithm,
		&asset.PublicURL, &asset.ObjectKey, &asset.StorageBackendName, &asset.MimeType,
		&asset.ByteSize, &asset.FileName, &asset.CreatedAt, &asset.UpdatedAt, &asset.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *Repository) GetAsset(ctx context.Context, id uuid.UUID) (*simpleasset.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM asset WHERE id = $1`

	asset, err := scanAsset(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.handlePostgresError("get asset", err)
	}

	return asset, nil
}

func (r *Repository) GetAssetsByIDs(ctx context.Context, ids []uuid.UUID) ([]*simpleasset.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM asset WHERE id = ANY($1) AND deleted_at IS NULL`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, r.handlePostgresError("get assets by ids", err)
	}
	defer rows.Close()

	var assets []*simpleasset.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan asset", err)
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("iterate asset rows", err)
	}

	return assets, nil
}

func (r *Repository) GetAssetByChecksum(ctx context.Context, checksum string, scope simpleasset.DedupScope) (*simpleasset.Asset, error) {
	query := `SELECT ` + assetColumns + `
	FROM asset WHERE checksum = $1 AND owner_id = $2 AND deleted_at IS NULL`

	asset, err := scanAsset(r.db.QueryRow(ctx, query, checksum, scope.ScopeOwnerID()))
	if err != nil {
		return nil, r.handlePostgresError("get asset by checksum", err)
	}

	return asset, nil
}

func (r *Repository) ListAssets(ctx context.Context, scope simpleasset.DedupScope) ([]*simpleasset.Asset, error) {
	query := `SELECT ` + assetColumns + `
	FROM asset WHERE owner_id = $1 AND deleted_at IS NULL
	ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, scope.ScopeOwnerID())
	if err != nil {
		return nil, r.handlePostgresError("list assets", err)
	}
	defer rows.Close()

	var assets []*simpleasset.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan asset", err)
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("iterate asset rows", err)
	}

	return assets, nil
}

func (r *Repository) TombstoneAsset(ctx context.Context, id uuid.UUID) error {
	// Soft delete: setting deleted_at releases the partial unique index slot
	// for this checksum, so identical content re-submitted later inserts a
	// fresh active row.
	query := `UPDATE asset SET deleted_at = NOW(), updated_at = NOW()
	WHERE id = $1 AND deleted_at IS NULL`

	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return r.handlePostgresError("tombstone asset", err)
	}
	return nil
}
