// Package risk scores the five governance risk categories and aggregates
// them into an overall assessment.
package risk

import (
	"strings"

	"github.com/davidahmann/govgate/internal/policy"
	"github.com/davidahmann/govgate/pkg/types"
	"golang.org/x/text/cases"
)

const maxScore = 100

type scorer func(k policy.Keywords, p types.Payload) (int, []string)

var scorers = []struct {
	category string
	score    scorer
}{
	{policy.CategoryFinancial, scoreFinancial},
	{policy.CategoryOperational, scoreOperational},
	{policy.CategoryReputational, scoreReputational},
	{policy.CategoryCompliance, scoreCompliance},
	{policy.CategoryEthical, scoreEthical},
}

// Score runs every category scorer over the payload, in fixed category order.
func Score(t policy.Tables, p types.Payload) []types.RiskFactor {
	out := make([]types.RiskFactor, 0, len(scorers))
	for _, s := range scorers {
		points, factors := s.score(t.Keywords, p)
		if points > maxScore {
			points = maxScore
		}
		primary := "Standard " + s.category + " parameters"
		if len(factors) > 0 {
			primary = factors[0]
		}
		if factors == nil {
			factors = []string{}
		}
		weight := 0.0
		if c, ok := t.Category(s.category); ok {
			weight = float64(c.WeightBasisPoints()) / 10000
		}
		out = append(out, types.RiskFactor{
			Category:       s.category,
			Score:          points,
			Weight:         weight,
			Factors:        factors,
			PrimaryConcern: primary,
		})
	}
	return out
}

func scoreFinancial(_ policy.Keywords, p types.Payload) (int, []string) {
	score := 0
	var factors []string
	switch {
	case p.Amount > 1_000_000:
		score += 40
		factors = append(factors, "Amount exceeds 1,000,000")
	case p.Amount > 500_000:
		score += 30
		factors = append(factors, "Amount exceeds 500,000")
	case p.Amount > 100_000:
		score += 20
		factors = append(factors, "Amount exceeds 100,000")
	case p.Amount > 50_000:
		score += 10
		factors = append(factors, "Amount exceeds 50,000")
	}
	switch {
	case p.Duration > 36:
		score += 15
		factors = append(factors, "Commitment longer than 36 months")
	case p.Duration > 12:
		score += 10
		factors = append(factors, "Commitment longer than 12 months")
	}
	return score, factors
}

func scoreOperational(k policy.Keywords, p types.Payload) (int, []string) {
	score := 0
	var factors []string
	switch {
	case p.Beneficiaries > 50_000:
		score += 35
		factors = append(factors, "More than 50,000 beneficiaries")
	case p.Beneficiaries > 10_000:
		score += 25
		factors = append(factors, "More than 10,000 beneficiaries")
	case p.Beneficiaries > 1_000:
		score += 15
		factors = append(factors, "More than 1,000 beneficiaries")
	}
	switch p.Urgency {
	case "emergency":
		score += 30
		factors = append(factors, "Emergency timeline")
	case "urgent":
		score += 20
		factors = append(factors, "Urgent timeline")
	}
	if kw, ok := matchAny(p.Location, k.ConflictLocations); ok {
		score += 25
		factors = append(factors, "High-risk location ("+kw+")")
	}
	return score, factors
}

func scoreReputational(k policy.Keywords, p types.Payload) (int, []string) {
	score := 0
	var factors []string
	switch n := len(p.Partners); {
	case n == 0:
		score += 20
		factors = append(factors, "No partners declared")
	case n > 5:
		score += 15
		factors = append(factors, "More than 5 partners declared")
	}
	if kw, ok := matchAny(p.Category, k.SensitiveCategories); ok {
		score += 35
		factors = append(factors, "Sensitive category ("+kw+")")
	}
	return score, factors
}

func scoreCompliance(k policy.Keywords, p types.Payload) (int, []string) {
	score := 0
	var factors []string
	if p.Amount > 100_000 {
		score += 20
		factors = append(factors, "Amount above 100,000 reporting threshold")
	}
	if kw, ok := matchAny(p.Location, k.SanctionedJurisdictions); ok {
		score += 50
		factors = append(factors, "Sanctioned jurisdiction ("+kw+")")
	}
	if kw, ok := matchAny(p.Category, k.RegulatedCategories); ok {
		score += 15
		factors = append(factors, "Regulated category ("+kw+")")
	}
	return score, factors
}

func scoreEthical(_ policy.Keywords, p types.Payload) (int, []string) {
	score := 0
	var factors []string
	if p.VulnerableGroups {
		score += 25
		factors = append(factors, "Involves vulnerable groups")
	}
	if !p.CommunityConsent {
		score += 40
		factors = append(factors, "Community consent not obtained")
	}
	switch p.EnvironmentalImpact {
	case "high":
		score += 20
		factors = append(factors, "High environmental impact")
	case "medium":
		score += 10
		factors = append(factors, "Medium environmental impact")
	}
	return score, factors
}

// matchAny reports the first keyword contained in text, ignoring case.
// Keywords are already case-folded by the tables loader.
func matchAny(text string, keywords []string) (string, bool) {
	if text == "" {
		return "", false
	}
	folded := cases.Fold().String(text)
	for _, kw := range keywords {
		if strings.Contains(folded, kw) {
			return kw, true
		}
	}
	return "", false
}
