package charges

import (
	"time"

	"pos-system/internal/models"
)

// Input bundles everything the evaluator needs. Now is passed in rather than
// read from the clock so that evaluation stays a pure function.
type Input struct {
	Subtotal            float64
	OrderType           models.OrderType
	PartySize           int
	SelectedDiscountIDs []string
	Now                 time.Time
	Rules               []models.ChargeRule
}

// BreakdownLine records one matched rule and the amount it produced, for
// receipts and auditing.
type BreakdownLine struct {
	RuleID string            `json:"rule_id"`
	Name   string            `json:"name"`
	Kind   models.ChargeKind `json:"kind"`
	Basis  float64           `json:"basis"`
	Amount float64           `json:"amount"`
}

// GratuitySuggestion is a gratuity rule that matched the order. Suggestions
// are never applied to the total unless the caller selects one.
type GratuitySuggestion struct {
	RuleID string  `json:"rule_id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Result is the priced breakdown of an order against a rule set.
type Result struct {
	Tax                 float64              `json:"tax"`
	ServiceCharges      float64              `json:"service_charges"`
	Discounts           float64              `json:"discounts"`
	GratuitySuggestions []GratuitySuggestion `json:"gratuity_suggestions,omitempty"`
	Breakdown           []BreakdownLine      `json:"breakdown,omitempty"`
}

// SuggestionAmount returns the suggested gratuity for the given rule id.
func (r *Result) SuggestionAmount(ruleID string) (float64, bool) {
	for _, s := range r.GratuitySuggestions {
		if s.RuleID == ruleID {
			return s.Amount, true
		}
	}
	return 0, false
}

// Evaluate computes tax, service charges, gratuity suggestions and discounts
// for an order. It is side-effect-free: identical inputs yield identical
// output and the rule slice is never mutated. Monetary outputs are rounded to
// 2 decimals at emission only; intermediate sums stay unrounded so rounding
// error does not compound across rules.
func Evaluate(in Input) Result {
	var res Result

	// Taxes first: service charges flagged off-subtotal use subtotal+tax as
	// their basis, so the raw (unrounded) tax sum must exist before they run.
	rawTax := 0.0
	for i := range in.Rules {
		rule := &in.Rules[i]
		if rule.Kind != models.KindTax || !matches(rule, in) {
			continue
		}
		amount := ruleAmount(rule, in.Subtotal)
		rawTax += amount
		res.Breakdown = append(res.Breakdown, line(rule, in.Subtotal, amount))
	}

	rawService := 0.0
	for i := range in.Rules {
		rule := &in.Rules[i]
		if rule.Kind != models.KindServiceCharge {
			continue
		}
		basis := in.Subtotal
		if !rule.AppliesToSubtotal {
			basis = in.Subtotal + rawTax
		}
		if !rule.Active || !rule.AppliesToType(in.OrderType) || !rule.WithinBounds(basis) {
			continue
		}
		amount := ruleAmount(rule, basis)
		rawService += amount
		res.Breakdown = append(res.Breakdown, line(rule, basis, amount))
	}

	for i := range in.Rules {
		rule := &in.Rules[i]
		if rule.Kind != models.KindGratuity || !matches(rule, in) {
			continue
		}
		if in.PartySize < rule.PartySizeMinimum {
			continue
		}
		amount := models.Round2(ruleAmount(rule, in.Subtotal))
		res.GratuitySuggestions = append(res.GratuitySuggestions, GratuitySuggestion{
			RuleID: rule.ID,
			Name:   rule.Name,
			Amount: amount,
		})
	}

	rawDiscount := 0.0
	for i := range in.Rules {
		rule := &in.Rules[i]
		if rule.Kind != models.KindDiscount || !matches(rule, in) {
			continue
		}
		if !selected(rule.ID, in.SelectedDiscountIDs) || !discountUsable(rule, in.Now) {
			continue
		}
		amount := ruleAmount(rule, in.Subtotal)
		rawDiscount += amount
		res.Breakdown = append(res.Breakdown, line(rule, in.Subtotal, amount))
	}

	res.Tax = models.Round2(rawTax)
	res.ServiceCharges = models.Round2(rawService)
	res.Discounts = models.Round2(rawDiscount)
	return res
}

// matches checks the predicate shared by all rule kinds against the subtotal
// basis. Service charges check their own basis separately.
func matches(rule *models.ChargeRule, in Input) bool {
	return rule.Active && rule.AppliesToType(in.OrderType) && rule.WithinBounds(in.Subtotal)
}

func ruleAmount(rule *models.ChargeRule, basis float64) float64 {
	if rule.MagnitudeType == models.MagnitudePercentage {
		return basis * rule.Rate / 100
	}
	return rule.Rate
}

func discountUsable(rule *models.ChargeRule, now time.Time) bool {
	if rule.ValidFrom != nil && now.Before(*rule.ValidFrom) {
		return false
	}
	if rule.ValidUntil != nil && now.After(*rule.ValidUntil) {
		return false
	}
	if rule.UsageLimit > 0 && rule.UsageCount >= rule.UsageLimit {
		return false
	}
	return true
}

func selected(id string, ids []string) bool {
	for _, s := range ids {
		if s == id {
			return true
		}
	}
	return false
}

func line(rule *models.ChargeRule, basis, amount float64) BreakdownLine {
	return BreakdownLine{
		RuleID: rule.ID,
		Name:   rule.Name,
		Kind:   rule.Kind,
		Basis:  models.Round2(basis),
		Amount: models.Round2(amount),
	}
}
