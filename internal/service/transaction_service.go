package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/pkg/midtrans"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultTransactionExpiry   = 24 * time.Hour
	defaultSubscriptionDays    = 30
	orderIDPrefix              = "PREPWISE"
	midtransStatusCapture      = "capture"
	midtransStatusSettlement   = "settlement"
	midtransStatusPending      = "pending"
	midtransStatusDeny         = "deny"
	midtransStatusCancel       = "cancel"
	midtransStatusExpire       = "expire"
	midtransStatusRefund       = "refund"
	midtransStatusPartialRefnd = "partial_refund"
	midtransFraudAccept        = "accept"
)

var ErrFreePlanPurchase = domain.NewError(domain.KindValidation, "free plans do not require payment", nil)

type transactionService struct {
	transactionRepo  domain.TransactionRepository
	planRepo         domain.PlanRepository
	subscriptionRepo domain.SubscriptionRepository
	userRepo         domain.UserRepository
	gateway          midtrans.Gateway
	logger           *zap.Logger
	now              func() time.Time
}

func NewTransactionService(
	transactionRepo domain.TransactionRepository,
	planRepo domain.PlanRepository,
	subscriptionRepo domain.SubscriptionRepository,
	userRepo domain.UserRepository,
	gateway midtrans.Gateway,
	logger *zap.Logger,
) domain.TransactionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &transactionService{
		transactionRepo:  transactionRepo,
		planRepo:         planRepo,
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		gateway:          gateway,
		logger:           logger,
		now:              time.Now,
	}
}

// CreateTransaction opens a Snap payment for a plan. The amount always comes
// from the stored plan price.
func (s *transactionService) CreateTransaction(ctx context.Context, userID uuid.UUID, req *domain.CreateTransactionRequest) (*domain.TransactionResponse, error) {
	if req == nil || req.PlanID == uuid.Nil {
		return nil, domain.NewError(domain.KindValidation, "plan_id is required", nil)
	}

	plan, err := s.planRepo.FindByID(ctx, req.PlanID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrPlanNotAvailable
		}
		return nil, fmt.Errorf("failed to fetch plan: %w", err)
	}
	if !plan.IsActive {
		return nil, domain.ErrPlanNotAvailable
	}
	if plan.Price.IsZero() {
		return nil, ErrFreePlanPurchase
	}

	existing, err := s.subscriptionRepo.FindActiveByUserID(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to fetch subscription: %w", err)
	}
	if existing != nil && existing.PlanID == plan.ID {
		return nil, domain.ErrActiveSubscriptionExists
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	now := s.now()
	orderID := fmt.Sprintf("%s-%s-%s-%d", orderIDPrefix, plan.ID.String()[:8], userID.String()[:8], now.UnixMilli())
	grossAmount := plan.Price.IntPart()

	snapResp, err := s.gateway.CreateSnapTransaction(midtrans.CreateTransactionRequest{
		OrderID:     orderID,
		GrossAmount: grossAmount,
		ItemDetails: []midtrans.ItemDetail{
			{
				ID:       plan.ID.String(),
				Name:     plan.DisplayName,
				Price:    grossAmount,
				Quantity: 1,
			},
		},
		CustomerDetails: midtrans.CustomerDetail{
			FirstName: user.Name,
			Email:     user.Email,
		},
	})
	if err != nil {
		return nil, domain.NewError(domain.KindUpstream, "failed to create payment", err)
	}

	expiredAt := now.Add(defaultTransactionExpiry)
	transaction := &domain.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		PlanID:      plan.ID,
		OrderID:     orderID,
		GrossAmount: plan.Price,
		Status:      domain.TransactionStatusPending,
		SnapToken:   &snapResp.Token,
		RedirectURL: &snapResp.RedirectURL,
		ExpiredAt:   &expiredAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.transactionRepo.Create(ctx, transaction); err != nil {
		return nil, domain.NewError(domain.KindCreation, "failed to record transaction", err)
	}

	transaction.Plan = plan
	s.logger.Info("transaction created",
		zap.String("order_id", orderID),
		zap.String("user_id", userID.String()),
		zap.String("amount", plan.Price.String()),
	)

	return &domain.TransactionResponse{
		Transaction: transaction,
		SnapToken:   snapResp.Token,
		RedirectURL: snapResp.RedirectURL,
	}, nil
}

func (s *transactionService) GetByID(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*domain.Transaction, error) {
	transaction, err := s.transactionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapTransactionLookup(err)
	}
	if transaction.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}
	return transaction, nil
}

func (s *transactionService) GetByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error) {
	transaction, err := s.transactionRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, mapTransactionLookup(err)
	}
	return transaction, nil
}

func (s *transactionService) GetUserTransactions(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedTransactions, error) {
	page, limit = domain.NormalizePage(page, limit)

	total, err := s.transactionRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	transactions, err := s.transactionRepo.FindByUserID(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	return &domain.PaginatedTransactions{
		Transactions: transactions,
		Pagination:   domain.NewPagination(page, limit, total),
	}, nil
}

// HandleWebhook verifies a Midtrans notification and reconciles the
// transaction against the status reported by the Core API.
func (s *transactionService) HandleWebhook(ctx context.Context, payload map[string]interface{}) error {
	orderID, _ := payload["order_id"].(string)
	if orderID == "" {
		return domain.ErrInvalidOrderID
	}

	statusCode, _ := payload["status_code"].(string)
	grossAmount, _ := payload["gross_amount"].(string)
	signatureKey, _ := payload["signature_key"].(string)
	if !s.gateway.VerifySignatureKey(orderID, statusCode, grossAmount, signatureKey) {
		s.logger.Warn("rejected webhook with bad signature", zap.String("order_id", orderID))
		return domain.ErrInvalidSignature
	}

	transaction, err := s.transactionRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return mapTransactionLookup(err)
	}

	raw, _ := json.Marshal(payload)
	_, err = s.reconcile(ctx, transaction, raw)
	return err
}

func (s *transactionService) CheckTransactionStatus(ctx context.Context, orderID string) (*domain.Transaction, error) {
	transaction, err := s.transactionRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, mapTransactionLookup(err)
	}
	return s.reconcile(ctx, transaction, nil)
}

func (s *transactionService) reconcile(ctx context.Context, transaction *domain.Transaction, raw json.RawMessage) (*domain.Transaction, error) {
	if isFinalTransactionStatus(transaction.Status) {
		return transaction, nil
	}

	statusResp, err := s.gateway.CheckTransaction(transaction.OrderID)
	if err != nil {
		return nil, domain.NewError(domain.KindUpstream, "failed to verify transaction with midtrans", err)
	}

	transaction.TransactionID = &statusResp.TransactionID
	transaction.PaymentType = &statusResp.PaymentType
	transaction.TransactionStatus = &statusResp.TransactionStatus
	transaction.FraudStatus = &statusResp.FraudStatus
	if len(raw) > 0 {
		transaction.MidtransResponse = raw
	}
	transaction.Status = mapMidtransStatus(statusResp.TransactionStatus, statusResp.FraudStatus)

	if transaction.Status == domain.TransactionStatusSuccess && transaction.SubscriptionID == nil {
		now := s.now()
		transaction.PaidAt = &now

		subscriptionID, err := s.activateSubscription(ctx, transaction)
		if err != nil {
			return nil, fmt.Errorf("failed to create subscription: %w", err)
		}
		transaction.SubscriptionID = &subscriptionID
	}

	if err := s.transactionRepo.Update(ctx, transaction); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	s.logger.Info("transaction reconciled",
		zap.String("order_id", transaction.OrderID),
		zap.String("status", string(transaction.Status)),
	)
	return transaction, nil
}

// activateSubscription replaces any active subscription with one for the paid plan.
func (s *transactionService) activateSubscription(ctx context.Context, transaction *domain.Transaction) (uuid.UUID, error) {
	plan, err := s.planRepo.FindByID(ctx, transaction.PlanID)
	if err != nil {
		return uuid.Nil, err
	}

	durationDays := defaultSubscriptionDays
	if plan.DurationDays != nil {
		durationDays = *plan.DurationDays
	}

	now := s.now()
	existing, err := s.subscriptionRepo.FindActiveByUserID(ctx, transaction.UserID)
	switch {
	case err == nil:
		existing.Status = domain.SubscriptionStatusCanceled
		existing.CanceledAt = &now
		if err := s.subscriptionRepo.Update(ctx, existing); err != nil {
			return uuid.Nil, err
		}
	case !errors.Is(err, domain.ErrRecordNotFound):
		return uuid.Nil, err
	}

	subscription := &domain.Subscription{
		ID:        uuid.New(),
		UserID:    transaction.UserID,
		PlanID:    transaction.PlanID,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, durationDays),
		Status:    domain.SubscriptionStatusActive,
		CreatedAt: now,
	}
	if err := s.subscriptionRepo.Create(ctx, subscription); err != nil {
		return uuid.Nil, err
	}

	return subscription.ID, nil
}

func isFinalTransactionStatus(status domain.TransactionStatus) bool {
	return status == domain.TransactionStatusSuccess || status == domain.TransactionStatusFailed
}

// mapMidtransStatus follows https://docs.midtrans.com/docs/https-notification-webhooks.
func mapMidtransStatus(transactionStatus, fraudStatus string) domain.TransactionStatus {
	switch transactionStatus {
	case midtransStatusCapture:
		if fraudStatus == midtransFraudAccept {
			return domain.TransactionStatusSuccess
		}
		return domain.TransactionStatusPending
	case midtransStatusSettlement:
		return domain.TransactionStatusSuccess
	case midtransStatusDeny, midtransStatusRefund, midtransStatusPartialRefnd:
		return domain.TransactionStatusFailed
	case midtransStatusCancel:
		return domain.TransactionStatusCancel
	case midtransStatusExpire:
		return domain.TransactionStatusExpired
	default:
		return domain.TransactionStatusPending
	}
}

func mapTransactionLookup(err error) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.ErrTransactionNotFound
	}
	return err
}
