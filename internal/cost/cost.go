// Package cost turns reported token usage into a USD estimate using the
// catalog's per-million prices.
package cost

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/howard-nolan/llmrevise/internal/catalog"
	"github.com/howard-nolan/llmrevise/internal/provider"
)

// Estimate is the USD cost of one call. Amounts are exact; round only
// when presenting them.
type Estimate struct {
	InputCostUSD  decimal.Decimal `json:"input_cost_usd"`
	OutputCostUSD decimal.Decimal `json:"output_cost_usd"`
	TotalCostUSD  decimal.Decimal `json:"total_cost_usd"`
}

// String formats the total to the cent, with sub-cent totals shown to
// six places so they don't read as free.
func (e Estimate) String() string {
	if !e.TotalCostUSD.IsZero() && e.TotalCostUSD.LessThan(decimal.New(1, -2)) {
		return fmt.Sprintf("$%s", e.TotalCostUSD.StringFixed(6))
	}
	return fmt.Sprintf("$%s", e.TotalCostUSD.StringFixed(2))
}

// Estimator prices usage against a catalog.
type Estimator struct {
	catalog *catalog.Catalog
}

// NewEstimator returns an Estimator over c. A nil catalog means the
// default one.
func NewEstimator(c *catalog.Catalog) *Estimator {
	if c == nil {
		c = catalog.Default()
	}
	return &Estimator{catalog: c}
}

// Estimate prices usage for the model with the given API identifier. It
// reports false when the model is unknown or has no published pricing.
func (e *Estimator) Estimate(usage provider.Usage, modelID string) (Estimate, bool) {
	spec, ok := e.catalog.FindByAPIIdentifier(modelID)
	if !ok || !spec.HasPricing() {
		return Estimate{}, false
	}

	in := perMillion(usage.InputTokens, *spec.InputCostPerMillion)
	out := perMillion(usage.OutputTokens, *spec.OutputCostPerMillion)

	return Estimate{
		InputCostUSD:  in,
		OutputCostUSD: out,
		TotalCostUSD:  in.Add(out),
	}, true
}

// perMillion computes tokens/1e6 * price. Shifting the token count by six
// decimal places is exact, unlike dividing.
func perMillion(tokens int, price decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(tokens)).Shift(-6).Mul(price)
}

// For prices usage against the default catalog.
func For(usage provider.Usage, modelID string) (Estimate, bool) {
	return NewEstimator(nil).Estimate(usage, modelID)
}
