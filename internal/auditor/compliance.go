package auditor

import (
	"math"

	"norm-check/internal/model"
)

// NormalFormWeights combine per normal form scores into a table's overall score.
var NormalFormWeights = map[model.NormalForm]float64{
	model.NF1: 0.50,
	model.NF2: 0.30,
	model.NF3: 0.20,
}

const (
	passThreshold    = 90.0
	warningThreshold = 70.0
)

// round2 rounds half away from zero to two decimals.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func complianceStatus(score float64) model.ComplianceStatus {
	switch {
	case score >= passThreshold:
		return model.CompliancePass
	case score >= warningThreshold:
		return model.ComplianceWarning
	default:
		return model.ComplianceFail
	}
}

// Compliance scores one normal form from resolved violations. Each distinct rule that
// fired costs its full weight once, whatever its confidence.
func (a *Auditor) Compliance(nf model.NormalForm, violations []model.Violation) model.ComplianceScore {
	weights := make(map[string]float64)
	score := model.ComplianceScore{
		NormalForm: nf,
		Violations: make([]model.Violation, 0),
	}
	for _, r := range a.rules {
		if r.NormalForm() != nf {
			continue
		}
		weights[r.ID()] = r.Weight()
		score.MaxWeight += r.Weight()
		score.RuleCount++
	}

	counted := make(map[string]bool)
	for _, v := range violations {
		if v.NormalForm != nf {
			continue
		}
		score.Violations = append(score.Violations, v)
		if !counted[v.RuleID] {
			counted[v.RuleID] = true
			score.ViolatedWeight += weights[v.RuleID]
		}
	}

	if score.MaxWeight == 0 {
		score.Score = 100
	} else {
		s := (score.MaxWeight - score.ViolatedWeight) / score.MaxWeight * 100
		score.Score = round2(math.Max(0, math.Min(100, s)))
	}
	score.MaxWeight = round2(score.MaxWeight)
	score.ViolatedWeight = round2(score.ViolatedWeight)
	score.Status = complianceStatus(score.Score)
	return score
}

// OverallScore weights the normal form scores of one table.
func OverallScore(compliance []model.ComplianceScore) float64 {
	total := 0.0
	for _, c := range compliance {
		total += c.Score * NormalFormWeights[c.NormalForm]
	}
	return round2(total)
}
