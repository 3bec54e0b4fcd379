package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fxtransfer/internal/adapters"
	"fxtransfer/internal/domain"

	"github.com/sirupsen/logrus"
)

// ExchangeRateResolver is the slice of the exchange service the transfer
// engine depends on.
type ExchangeRateResolver interface {
	GetExchangeRate(ctx context.Context, from, to string) (float64, error)
	IsCurrencySupported(code string) bool
	SupportedCodes() []string
}

// Service executes atomic cross-currency transfers: validate, load both
// accounts, resolve rates, compute both legs, then apply the balance
// mutations and the Transaction record as one atomic unit.
type Service struct {
	ledger   adapters.LedgerRepository
	exchange ExchangeRateResolver
}

func NewService(ledger adapters.LedgerRepository, exchange ExchangeRateResolver) *Service {
	return &Service{ledger: ledger, exchange: exchange}
}

// Transfer moves amount (denominated in currency, which must match one of
// the two account currencies) from the source account to the destination
// account and returns the created Transaction. Nothing is persisted on any
// failure path.
func (s *Service) Transfer(
	ctx context.Context,
	sourceAccountID int64,
	destinationAccountID int64,
	amount float64,
	currency string,
	description string,
) (*domain.Transaction, error) {
	logrus.WithFields(logrus.Fields{
		"source_account_id":      sourceAccountID,
		"destination_account_id": destinationAccountID,
		"amount":                 amount,
		"currency":               currency,
	}).Info("Starting transfer")

	if amount <= 0 {
		logrus.WithField("amount", amount).Error("Amount must be positive")
		return nil, &domain.InvalidInputError{Reason: "Amount must be positive"}
	}

	sourceAccount, err := s.ledger.GetAccountByID(ctx, sourceAccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, &domain.InvalidInputError{Reason: "Source account not found"}
		}
		return nil, err
	}

	destinationAccount, err := s.ledger.GetAccountByID(ctx, destinationAccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, &domain.InvalidInputError{Reason: "Destination account not found"}
		}
		return nil, err
	}

	if err = s.validateCurrency(sourceAccount, destinationAccount, currency); err != nil {
		return nil, err
	}

	// The source→destination rate is recorded on the Transaction even when
	// the transfer currency matches one of the accounts and that leg needs
	// no conversion; it lets consumers reconstruct both legs later.
	exchangeRate, err := s.exchange.GetExchangeRate(ctx, sourceAccount.Currency, destinationAccount.Currency)
	if err != nil {
		return nil, err
	}

	sourceAmount, err := s.convertAmount(ctx, amount, currency, sourceAccount.Currency)
	if err != nil {
		return nil, err
	}
	destinationAmount, err := s.convertAmount(ctx, amount, currency, destinationAccount.Currency)
	if err != nil {
		return nil, err
	}

	if sourceAccount.Balance < sourceAmount {
		return nil, &domain.InvalidInputError{Reason: "Insufficient funds in source account"}
	}

	transaction, err := s.ledger.ApplyTransfer(ctx, domain.Transfer{
		SourceAccountID:      sourceAccount.ID,
		DestinationAccountID: destinationAccount.ID,
		SourceAmount:         sourceAmount,
		DestinationAmount:    destinationAmount,
		Amount:               amount,
		Currency:             currency,
		Description:          description,
		ExchangeRate:         exchangeRate,
	})
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"source_account_id":      sourceAccountID,
			"destination_account_id": destinationAccountID,
			"amount":                 amount,
			"currency":               currency,
		}).Error("Transfer failed")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"transaction_id":      transaction.ID,
		"source_account":      sourceAccount.Number,
		"destination_account": destinationAccount.Number,
		"amount":              amount,
		"currency":            currency,
		"exchange_rate":       exchangeRate,
	}).Info("Transfer completed successfully")

	return transaction, nil
}

// validateCurrency checks the transfer currency against the allow-list and
// requires it to match either account's currency, destination checked first.
func (s *Service) validateCurrency(sourceAccount, destinationAccount *domain.Account, currency string) error {
	if !s.exchange.IsCurrencySupported(currency) {
		return &domain.InvalidInputError{
			Reason: fmt.Sprintf("Currency %s is not supported. Supported currencies: %s",
				currency, strings.Join(s.exchange.SupportedCodes(), ", ")),
		}
	}

	if currency == destinationAccount.Currency {
		return nil
	}
	if currency == sourceAccount.Currency {
		return nil
	}

	return &domain.InvalidInputError{
		Reason: fmt.Sprintf("Currency of funds in transfer operation must match either "+
			"source account currency (%s) or destination account currency (%s)",
			sourceAccount.Currency, destinationAccount.Currency),
	}
}

// convertAmount expresses the transfer amount in the account's currency.
// Each leg is converted independently through the resolver rather than
// derived from the stored source→destination rate.
func (s *Service) convertAmount(ctx context.Context, amount float64, transferCurrency, accountCurrency string) (float64, error) {
	if transferCurrency == accountCurrency {
		return amount, nil
	}
	rate, err := s.exchange.GetExchangeRate(ctx, transferCurrency, accountCurrency)
	if err != nil {
		return 0, err
	}
	return amount * rate, nil
}
