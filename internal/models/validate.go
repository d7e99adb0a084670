package models

import (
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Validate checks request structs at the API boundary. The strongpw rule
// mirrors the registration policy: at least 8 characters with an upper,
// a lower, a digit and a symbol.
var Validate = validator.New()

func init() {
	Validate.RegisterValidation("strongpw", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
}

// StrongPassword reports whether pw satisfies the password policy.
func StrongPassword(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}
