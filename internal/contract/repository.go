// AngelaMos | 2026
// repository.go

package contract

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/atelierloc/backoffice/internal/core"
)

type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id string) (*Record, error)
	GetBySignLinkTokenHash(ctx context.Context, hash string) (*Record, error)
	Update(ctx context.Context, rec *Record) error
	List(ctx context.Context, params ListContractsParams) ([]Record, int, error)
	ListCompletable(ctx context.Context, before time.Time) ([]Record, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const contractColumns = `
	id, customer_id, status, package_id, package_price_ttc,
	start_at, end_at, items, addons,
	total_ht, total_ttc, account_ht, account_ttc,
	account_paid_ht, account_paid_ttc, caution_ht, caution_ttc,
	caution_paid_ht, caution_paid_ttc,
	sign_link_token_hash, signed_document_url,
	deleted_at, deleted_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO contracts (
			id, customer_id, status, package_id, package_price_ttc,
			start_at, end_at, items, addons,
			total_ht, total_ttc, account_ht, account_ttc,
			account_paid_ht, account_paid_ttc, caution_ht, caution_ttc,
			caution_paid_ht, caution_paid_ttc
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, rec, query,
		rec.ID,
		rec.CustomerID,
		rec.Status,
		rec.PackageID,
		rec.PackagePriceTTC,
		rec.StartAt,
		rec.EndAt,
		rec.Items,
		rec.Addons,
		rec.TotalHT,
		rec.TotalTTC,
		rec.AccountHT,
		rec.AccountTTC,
		rec.AccountPaidHT,
		rec.AccountPaidTTC,
		rec.CautionHT,
		rec.CautionTTC,
		rec.CautionPaidHT,
		rec.CautionPaidTTC,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create contract: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create contract: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Record, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM contracts WHERE id = $1`,
		contractColumns,
	)

	var rec Record
	err := r.db.GetContext(ctx, &rec, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get contract: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get contract: %w", err)
	}

	return &rec, nil
}

func (r *repository) GetBySignLinkTokenHash(
	ctx context.Context,
	hash string,
) (*Record, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM contracts WHERE sign_link_token_hash = $1`,
		contractColumns,
	)

	var rec Record
	err := r.db.GetContext(ctx, &rec, query, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get contract by sign link: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get contract by sign link: %w", err)
	}

	return &rec, nil
}

// Update persists the full record. Writes are last-write-wins by design;
// concurrent staff edits to the same contract are resolved upstream.
func (r *repository) Update(ctx context.Context, rec *Record) error {
	query := `
		UPDATE contracts
		SET customer_id = $2, status = $3,
		    package_id = $4, package_price_ttc = $5,
		    start_at = $6, end_at = $7, items = $8, addons = $9,
		    total_ht = $10, total_ttc = $11,
		    account_ht = $12, account_ttc = $13,
		    account_paid_ht = $14, account_paid_ttc = $15,
		    caution_ht = $16, caution_ttc = $17,
		    caution_paid_ht = $18, caution_paid_ttc = $19,
		    sign_link_token_hash = $20, signed_document_url = $21,
		    deleted_at = $22, deleted_by = $23,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &rec.UpdatedAt, query,
		rec.ID,
		rec.CustomerID,
		rec.Status,
		rec.PackageID,
		rec.PackagePriceTTC,
		rec.StartAt,
		rec.EndAt,
		rec.Items,
		rec.Addons,
		rec.TotalHT,
		rec.TotalTTC,
		rec.AccountHT,
		rec.AccountTTC,
		rec.AccountPaidHT,
		rec.AccountPaidTTC,
		rec.CautionHT,
		rec.CautionTTC,
		rec.CautionPaidHT,
		rec.CautionPaidTTC,
		rec.SignLinkTokenHash,
		rec.SignedDocumentURL,
		rec.DeletedAt,
		rec.DeletedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update contract: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update contract: %w", err)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListContractsParams,
) ([]Record, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	if params.Deleted != nil {
		if *params.Deleted {
			conditions = append(conditions, "deleted_at IS NOT NULL")
		} else {
			conditions = append(conditions, "deleted_at IS NULL")
		}
	}

	whereClause := "TRUE"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM contracts WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count contracts: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM contracts
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		contractColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var records []Record
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list contracts: %w", err)
	}

	return records, total, nil
}

// ListCompletable returns signed contracts whose rental window ended before
// the cutoff, for the end-of-rental sweep.
func (r *repository) ListCompletable(
	ctx context.Context,
	before time.Time,
) ([]Record, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM contracts
		WHERE status IN ($1, $2)
		  AND deleted_at IS NULL
		  AND end_at < $3
		ORDER BY end_at ASC`,
		contractColumns)

	var records []Record
	err := r.db.SelectContext(ctx, &records, query,
		StatusSigned,
		StatusSignedElectronically,
		before,
	)
	if err != nil {
		return nil, fmt.Errorf("list completable contracts: %w", err)
	}

	return records, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
