package opclient

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in minor units of an asset. Value stays a string
// end to end; arithmetic goes through decimal, never float.
type Amount struct {
	Value      string `json:"value"`
	AssetCode  string `json:"assetCode"`
	AssetScale int    `json:"assetScale"`
}

// MinorFromMajor converts a major-unit amount (e.g. 10.50 USD) into the minor
// unit string the protocol expects (e.g. "1050" at scale 2). Rounding is
// half-up, so fractional minor units cannot survive the conversion.
func MinorFromMajor(major decimal.Decimal, assetScale int) string {
	return major.Shift(int32(assetScale)).Round(0).String()
}

// Human returns the major-unit representation of the amount, e.g. "10.50" for
// {value: 1050, assetScale: 2}.
func (a Amount) Human() (string, error) {
	minor, err := decimal.NewFromString(a.Value)
	if err != nil {
		return "", fmt.Errorf("amount value %q: %w", a.Value, err)
	}
	return minor.Shift(int32(-a.AssetScale)).StringFixed(int32(a.AssetScale)), nil
}

// Format renders the amount with its asset code for display, falling back to
// the raw minor value if it does not parse.
func (a Amount) Format() string {
	human, err := a.Human()
	if err != nil {
		return fmt.Sprintf("%s %s", a.Value, a.AssetCode)
	}
	return fmt.Sprintf("%s %s", human, a.AssetCode)
}
