package recalc

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// Placeholder names recognized in description templates.
const (
	PlaceholderQuantity                = "quantity"
	PlaceholderRemainingPercent        = "remaining_percent"
	PlaceholderRemainingPercentInteger = "remaining_percent_integer"
)

// placeholderPattern matches a known placeholder, allowing spaces inside the braces.
var placeholderPattern = regexp.MustCompile(`\{ *(quantity|remaining_percent|remaining_percent_integer) *\}`)

var hundred = decimal.NewFromInt(100)

// NormalizeTemplate collapses whitespace inside known placeholders,
// turning "{ quantity }" into "{quantity}". Unknown placeholders are untouched.
func NormalizeTemplate(template string) string {
	return placeholderPattern.ReplaceAllString(template, "{$1}")
}

// RenderDescription fills a description template from the computed sum.
// The template is normalized first and substituted second; the two steps
// are kept separate so new placeholder syntax can be added to either one.
func RenderDescription(template string, sum decimal.Decimal) string {
	return substitute(NormalizeTemplate(template), placeholderValues(sum))
}

// placeholderValues computes the replacement text of every placeholder.
func placeholderValues(sum decimal.Decimal) map[string]string {
	percent := sum.Sub(sum.Floor()).Mul(hundred)

	return map[string]string{
		PlaceholderQuantity:                sum.Floor().String(),
		PlaceholderRemainingPercent:        percent.RoundFloor(1).StringFixed(1),
		PlaceholderRemainingPercentInteger: percent.Floor().String(),
	}
}

// substitute replaces normalized placeholders with their values.
func substitute(template string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if v, ok := values[name]; ok {
			return v
		}
		return match
	})
}
