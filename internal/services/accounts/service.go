// Package accounts provides account opening and the account directory.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmaitland/tally/internal/common"
	"github.com/dmaitland/tally/internal/interfaces"
	"github.com/dmaitland/tally/internal/models"
)

// maxNumberAttempts bounds retries when a generated account number collides.
const maxNumberAttempts = 10

// Service implements interfaces.AccountService.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
}

// NewService creates a new account service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{storage: storage, logger: logger}
}

// Open creates an account. The PIN is stored only as a bcrypt hash. A
// positive opening balance is applied and recorded as an INITIAL_DEPOSIT
// from SYSTEM inside the same transaction as the account itself.
func (s *Service) Open(ctx context.Context, req interfaces.OpenAccountRequest) (*models.Account, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("account holder name is required")
	}
	if len(req.PIN) < 4 {
		return nil, fmt.Errorf("PIN must be at least 4 characters")
	}
	if req.OpeningBalance.Sign() < 0 {
		return nil, fmt.Errorf("%w: opening balance cannot be negative", models.ErrInvalidAmount)
	}

	pinHash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash PIN: %w", err)
	}

	role := req.Role
	if role == "" {
		role = models.RoleCustomer
	}

	store := s.storage.LedgerStore()
	now := time.Now()
	acct := &models.Account{
		Name:      req.Name,
		Email:     req.Email,
		Role:      role,
		PINHash:   pinHash,
		Balance:   req.OpeningBalance,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = store.Update(ctx, func(tx interfaces.LedgerTx) error {
		number, err := freshAccountNumber(tx)
		if err != nil {
			return err
		}
		acct.AccountNumber = number

		if err := tx.SaveAccount(acct); err != nil {
			return err
		}

		if req.OpeningBalance.Sign() > 0 {
			return tx.AppendTransaction(&models.Transaction{
				ID:              uuid.New().String(),
				SenderAccount:   models.SystemAccount,
				ReceiverAccount: number,
				Amount:          req.OpeningBalance,
				Type:            models.TxInitialDeposit,
				Description:     "Account opening deposit",
				Timestamp:       now,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("account", acct.AccountNumber).
		Str("role", string(acct.Role)).
		Msg("Account opened")
	return acct, nil
}

// freshAccountNumber generates an unused 10-digit account number.
func freshAccountNumber(tx interfaces.LedgerTx) (string, error) {
	for i := 0; i < maxNumberAttempts; i++ {
		number := fmt.Sprintf("%0*d", models.AccountNumberWidth, rand.Uint64N(1e10))
		_, err := tx.Account(number)
		if errors.Is(err, models.ErrAccountNotFound) {
			return number, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("failed to generate an unused account number")
}

// Resolve looks up an account by any identifier form.
func (s *Service) Resolve(ctx context.Context, identifier string) (*models.Account, error) {
	number, err := models.NormalizeAccountNumber(identifier)
	if err != nil {
		return nil, err
	}
	if number == models.SystemAccount {
		return nil, fmt.Errorf("%w: %s is not a real account", models.ErrAccountNotFound, number)
	}
	return s.storage.LedgerStore().Account(ctx, number)
}

// VerifyPIN checks the secondary PIN credential.
func (s *Service) VerifyPIN(ctx context.Context, identifier, pin string) error {
	acct, err := s.Resolve(ctx, identifier)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword(acct.PINHash, []byte(pin)); err != nil {
		return models.ErrInvalidPIN
	}
	return nil
}

var _ interfaces.AccountService = (*Service)(nil)
