// pkg/currency/currency.go
package currency

import "fmt"

// Format renders a monetary value with the store currency symbol and two
// fixed decimal places. Every displayed or dispatched amount goes through
// this one rule.
func Format(v float64) string {
	return fmt.Sprintf("R$ %.2f", v)
}
