// Package phone composes and splits the stored phone format: a "+" country
// code followed by exactly ten subscriber digits, e.g. +919876543210.
package phone

import (
	"errors"
	"regexp"
	"strings"
)

// MaxDigits is the length of the subscriber part
const MaxDigits = 10

// DefaultCountryCode is preselected on the profile form
const DefaultCountryCode = "+91"

// CountryCode is an entry of the country picker
type CountryCode struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// CountryCodes is the list offered by the profile form
var CountryCodes = []CountryCode{
	{Name: "India", Code: "+91"},
	{Name: "United States", Code: "+1"},
	{Name: "United Kingdom", Code: "+44"},
	{Name: "Canada", Code: "+1"},
	{Name: "Australia", Code: "+61"},
	{Name: "China", Code: "+86"},
	{Name: "Japan", Code: "+81"},
	{Name: "Germany", Code: "+49"},
	{Name: "France", Code: "+33"},
	{Name: "Italy", Code: "+39"},
	{Name: "Spain", Code: "+34"},
	{Name: "Brazil", Code: "+55"},
	{Name: "Mexico", Code: "+52"},
	{Name: "Russia", Code: "+7"},
	{Name: "South Korea", Code: "+82"},
}

var (
	storedPattern = regexp.MustCompile(`^\+\d{1,3}\d{10}$`)
	codePattern   = regexp.MustCompile(`^\+\d{1,3}$`)
	nonDigits     = regexp.MustCompile(`[^0-9]`)
)

// ErrInvalid is returned when a value is not in the stored phone format
var ErrInvalid = errors.New("valid phone number with country code required")

// Number is a phone number split into its country code and subscriber digits
type Number struct {
	CountryCode string
	Digits      string
}

// Compose builds a number from a country code and free-form input.
// Non-digits are dropped and the input is cut to MaxDigits, like the form field.
func Compose(countryCode, input string) Number {
	digits := nonDigits.ReplaceAllString(input, "")
	if len(digits) > MaxDigits {
		digits = digits[:MaxDigits]
	}
	return Number{CountryCode: strings.TrimSpace(countryCode), Digits: digits}
}

// WithCountryCode swaps the prefix and keeps the digits
func (n Number) WithCountryCode(code string) Number {
	return Number{CountryCode: strings.TrimSpace(code), Digits: n.Digits}
}

func (n Number) String() string {
	return n.CountryCode + n.Digits
}

// Valid reports whether the number is in the stored format
func (n Number) Valid() bool {
	return codePattern.MatchString(n.CountryCode) && Valid(n.String())
}

// Valid reports whether s is in the stored format
func Valid(s string) bool {
	return storedPattern.MatchString(s)
}

// Parse splits a stored value. The subscriber part is always the last ten digits.
func Parse(s string) (Number, error) {
	s = strings.TrimSpace(s)
	if !Valid(s) {
		return Number{}, ErrInvalid
	}
	cut := len(s) - MaxDigits
	return Number{CountryCode: s[:cut], Digits: s[cut:]}, nil
}

// ReplaceCountryCode changes the prefix of a stored or partially typed value.
// Values that do not parse keep their digits after any existing "+code" prefix.
func ReplaceCountryCode(stored, code string) string {
	if n, err := Parse(stored); err == nil {
		return n.WithCountryCode(code).String()
	}
	rest := strings.TrimSpace(stored)
	if strings.HasPrefix(rest, "+") {
		for _, cc := range CountryCodes {
			if strings.HasPrefix(rest, cc.Code) {
				rest = strings.TrimPrefix(rest, cc.Code)
				break
			}
		}
	}
	return Compose(code, rest).String()
}
