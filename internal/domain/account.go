package domain

// Account is a client-owned balance in a single currency. The balance is
// always expressed in the account's own currency and is only mutated inside
// a committed transfer.
type Account struct {
	ID       int64
	Number   string
	Currency string
	Balance  float64
	ClientID int64
}
