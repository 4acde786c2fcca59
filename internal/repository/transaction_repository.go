package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/raflytch/prepwise-server/internal/domain"

	"github.com/google/uuid"
)

const (
	transactionColumns = `
		id, user_id, plan_id, subscription_id, order_id, transaction_id,
		gross_amount, payment_type, payment_method, status, transaction_status,
		fraud_status, snap_token, redirect_url, midtrans_response,
		paid_at, expired_at, created_at, updated_at, deleted_at
	`
)

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, user_id, plan_id, subscription_id, order_id, transaction_id,
			gross_amount, payment_type, payment_method, status, transaction_status,
			fraud_status, snap_token, redirect_url, midtrans_response,
			paid_at, expired_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err := r.db.ExecContext(ctx, query,
		tx.ID,
		tx.UserID,
		tx.PlanID,
		tx.SubscriptionID,
		tx.OrderID,
		tx.TransactionID,
		tx.GrossAmount,
		tx.PaymentType,
		tx.PaymentMethod,
		tx.Status,
		tx.TransactionStatus,
		tx.FraudStatus,
		tx.SnapToken,
		tx.RedirectURL,
		nullJSON(tx.MidtransResponse),
		tx.PaidAt,
		tx.ExpiredAt,
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	return err
}

func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1 AND deleted_at IS NULL
	`
	return scanTransaction(r.db.QueryRowContext(ctx, query, id))
}

func (r *transactionRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE order_id = $1 AND deleted_at IS NULL
	`
	return scanTransaction(r.db.QueryRowContext(ctx, query, orderID))
}

func (r *transactionRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	return transactions, rows.Err()
}

func (r *transactionRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(id) FROM transactions WHERE user_id = $1 AND deleted_at IS NULL`
	var count int64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	return count, err
}

func (r *transactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	query := `
		UPDATE transactions SET
			subscription_id = $1,
			transaction_id = $2,
			payment_type = $3,
			payment_method = $4,
			status = $5,
			transaction_status = $6,
			fraud_status = $7,
			snap_token = $8,
			redirect_url = $9,
			midtrans_response = $10,
			paid_at = $11,
			expired_at = $12,
			updated_at = $13
		WHERE id = $14 AND deleted_at IS NULL
	`
	tx.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		tx.SubscriptionID,
		tx.TransactionID,
		tx.PaymentType,
		tx.PaymentMethod,
		tx.Status,
		tx.TransactionStatus,
		tx.FraudStatus,
		tx.SnapToken,
		tx.RedirectURL,
		nullJSON(tx.MidtransResponse),
		tx.PaidAt,
		tx.ExpiredAt,
		tx.UpdatedAt,
		tx.ID,
	)
	return expectAffected(result, err)
}

// nullJSON maps an empty payload to NULL for the jsonb column.
func nullJSON(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var status string
	var midtransResp sql.NullString

	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.PlanID,
		&tx.SubscriptionID,
		&tx.OrderID,
		&tx.TransactionID,
		&tx.GrossAmount,
		&tx.PaymentType,
		&tx.PaymentMethod,
		&status,
		&tx.TransactionStatus,
		&tx.FraudStatus,
		&tx.SnapToken,
		&tx.RedirectURL,
		&midtransResp,
		&tx.PaidAt,
		&tx.ExpiredAt,
		&tx.CreatedAt,
		&tx.UpdatedAt,
		&tx.DeletedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	tx.Status = domain.TransactionStatus(status)
	if midtransResp.Valid {
		tx.MidtransResponse = json.RawMessage(midtransResp.String)
	}
	return &tx, nil
}
