// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"brickvest/internal/ledger"
)

var ethAddressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// decimalAmountRegex matches non-negative decimal amounts with up to 18
// fractional digits, the precision the ledger contract stores.
var decimalAmountRegex = regexp.MustCompile(`^[0-9]+(\.[0-9]{1,18})?$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("eth_address", validateEthAddress)
		_ = v.RegisterValidation("asset_type", validateAssetType)
		_ = v.RegisterValidation("decimal_amount", validateDecimalAmount)
		_ = v.RegisterValidation("payment_token", validatePaymentToken)
	}
}

func validateEthAddress(fl validator.FieldLevel) bool {
	return ethAddressRegex.MatchString(fl.Field().String())
}

func validateAssetType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "real_estate", "bond":
		return true
	}
	return false
}

func validateDecimalAmount(fl validator.FieldLevel) bool {
	return decimalAmountRegex.MatchString(fl.Field().String())
}

// validatePaymentToken accepts the native-coin sentinel or a token contract
// address. The contract stores the native coin as the zero address.
func validatePaymentToken(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return strings.EqualFold(s, ledger.NativeToken) || ethAddressRegex.MatchString(s)
}
