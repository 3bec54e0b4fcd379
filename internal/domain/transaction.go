package domain

import "time"

// Transaction is the immutable audit record of one completed transfer.
// Amount and Currency are the caller's original request, not the converted
// per-account amounts; ExchangeRate is the source-account → destination-account
// rate at transfer time, so both converted legs can be reconstructed later.
type Transaction struct {
	ID                   int64
	SourceAccountID      int64
	DestinationAccountID int64
	Amount               float64
	Currency             string
	Description          string
	ExchangeRate         float64
	CreatedAt            time.Time
}

// Transfer is a fully validated, fully computed transfer ready to be applied
// as one atomic unit: debit SourceAmount, credit DestinationAmount, insert
// the Transaction row.
type Transfer struct {
	SourceAccountID      int64
	DestinationAccountID int64
	SourceAmount         float64
	DestinationAmount    float64
	Amount               float64
	Currency             string
	Description          string
	ExchangeRate         float64
}
