package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prizepool/draw-engine-backend/internal/models"
	"github.com/prizepool/draw-engine-backend/internal/repositories"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure WalletServiceImpl implements WalletService
var _ WalletService = (*WalletServiceImpl)(nil)

// WalletServiceImpl maintains the credit ledger used when prizes are
// converted to cash alternatives. Every balance-affecting event writes
// exactly one transaction row, so the trail replays independently of the
// mutable credit balances.
type WalletServiceImpl struct {
	txRunner   repositories.TxRunner
	walletRepo repositories.WalletRepository
}

// NewWalletService creates a new WalletServiceImpl
func NewWalletService(txRunner repositories.TxRunner, walletRepo repositories.WalletRepository) *WalletServiceImpl {
	return &WalletServiceImpl{
		txRunner:   txRunner,
		walletRepo: walletRepo,
	}
}

// Credit grants spendable balance to a user
func (s *WalletServiceImpl) Credit(ctx context.Context, userID string, amountPence int64, expiry time.Time, description, source string) (*models.WalletTransaction, error) {
	if amountPence <= 0 {
		return nil, fmt.Errorf("credit amount must be positive, got %d", amountPence)
	}

	var tx *models.WalletTransaction
	err := s.txRunner.WithTransaction(ctx, func(txCtx context.Context) error {
		now := time.Now()
		balanceBefore, err := s.walletRepo.ActiveBalance(txCtx, userID, now)
		if err != nil {
			return fmt.Errorf("failed to read balance: %w", err)
		}

		credit := &models.WalletCredit{
			UserID:         userID,
			AmountPence:    amountPence,
			RemainingPence: amountPence,
			Source:         source,
			Description:    description,
			ExpiresAt:      expiry,
		}
		if err := s.walletRepo.InsertCredit(txCtx, credit); err != nil {
			return fmt.Errorf("failed to insert credit: %w", err)
		}

		tx = &models.WalletTransaction{
			UserID:       userID,
			Type:         models.WalletTxCredit,
			AmountPence:  amountPence,
			BalanceAfter: balanceBefore + amountPence,
			Reference:    uuid.NewString(),
			Description:  description,
		}
		return s.walletRepo.InsertTransaction(txCtx, tx)
	})
	if err != nil {
		slog.Error("Wallet credit failed", "error", err, "userId", userID, "amountPence", amountPence)
		return nil, err
	}

	slog.Info("Wallet credited", "userId", userID, "amountPence", amountPence, "reference", tx.Reference)
	return tx, nil
}

// Debit spends balance, consuming the oldest non-expired credits first.
// All-or-nothing: a shortfall consumes nothing and returns
// ErrInsufficientBalance.
func (s *WalletServiceImpl) Debit(ctx context.Context, userID string, amountPence int64, description string) (*models.WalletTransaction, error) {
	if amountPence <= 0 {
		return nil, fmt.Errorf("debit amount must be positive, got %d", amountPence)
	}

	var tx *models.WalletTransaction
	err := s.txRunner.WithTransaction(ctx, func(txCtx context.Context) error {
		now := time.Now()
		credits, err := s.walletRepo.FindActiveCredits(txCtx, userID, now)
		if err != nil {
			return fmt.Errorf("failed to load credits: %w", err)
		}

		var available int64
		for _, credit := range credits {
			available += credit.RemainingPence
		}
		if available < amountPence {
			return models.ErrInsufficientBalance
		}

		remaining := amountPence
		for _, credit := range credits {
			if remaining == 0 {
				break
			}
			take := credit.RemainingPence
			if take > remaining {
				take = remaining
			}
			if err := s.walletRepo.ConsumeCredit(txCtx, credit.ID, take); err != nil {
				return err
			}
			remaining -= take
		}

		tx = &models.WalletTransaction{
			UserID:       userID,
			Type:         models.WalletTxDebit,
			AmountPence:  amountPence,
			BalanceAfter: available - amountPence,
			Reference:    uuid.NewString(),
			Description:  description,
		}
		return s.walletRepo.InsertTransaction(txCtx, tx)
	})
	if err != nil {
		slog.Warn("Wallet debit failed", "error", err, "userId", userID, "amountPence", amountPence)
		return nil, err
	}

	slog.Info("Wallet debited", "userId", userID, "amountPence", amountPence, "reference", tx.Reference)
	return tx, nil
}

// Balance returns the sum of active, non-expired credit
func (s *WalletServiceImpl) Balance(ctx context.Context, userID string) (int64, error) {
	return s.walletRepo.ActiveBalance(ctx, userID, time.Now())
}

// Transactions returns a page of the user's ledger, newest first
func (s *WalletServiceImpl) Transactions(ctx context.Context, userID string, page, limit int) ([]*models.WalletTransaction, error) {
	return s.walletRepo.FindTransactions(ctx, userID, page, limit)
}
