package exchange

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"fxtransfer/internal/domain"
)

// CurrencyValidator owns an immutable copy of the supported-currency
// allow-list. Every currency entering the resolver or the transfer engine
// is checked against it before any network call.
type CurrencyValidator struct {
	supportedCodesSet map[string]struct{} // read only copy
	supportedCodesLst []string            // read only copy
}

func (v *CurrencyValidator) IsSupported(code string) bool {
	_, ok := v.supportedCodesSet[strings.ToUpper(code)]
	return ok
}

func (v *CurrencyValidator) Validate(code string) error {
	if v.IsSupported(code) {
		return nil
	}
	return &domain.InvalidInputError{
		Reason: fmt.Sprintf("Currency %s is not supported. Supported currencies: %s",
			code, strings.Join(v.supportedCodesLst, ", ")),
	}
}

func (v *CurrencyValidator) SupportedCodes() []string {
	return slices.Clone(v.supportedCodesLst)
}

func NewValidator(supportedCurrencies map[string]struct{}) *CurrencyValidator {
	codesSet := maps.Clone(supportedCurrencies)
	codesLst := slices.Collect(maps.Keys(codesSet))
	slices.Sort(codesLst)

	return &CurrencyValidator{
		supportedCodesSet: codesSet,
		supportedCodesLst: codesLst,
	}
}
