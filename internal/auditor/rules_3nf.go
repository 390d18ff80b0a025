package auditor

import (
	"fmt"

	"norm-check/internal/model"
)

var (
	determinantSuffixes = []string{"_id", "_code", "_type", "_status"}
	referenceEntities   = []string{"country", "state", "city", "department", "region"}

	// knownTransitivePairs maps a determinant to columns it is commonly known to determine
	knownTransitivePairs = map[string][]string{
		"country":       {"currency", "currency_code", "continent", "country_name"},
		"country_code":  {"currency", "currency_code", "continent", "country_name"},
		"country_id":    {"currency", "currency_code", "continent", "country_name"},
		"zip":           {"city", "state"},
		"zip_code":      {"city", "state"},
		"postal_code":   {"city", "state"},
		"department":    {"department_name", "manager", "manager_id", "manager_name"},
		"department_id": {"department_name", "manager", "manager_id", "manager_name"},
		"city":          {"city_name", "state", "region"},
		"city_id":       {"city_name", "state", "region"},
		"state":         {"state_name", "country"},
		"state_code":    {"state_name", "country"},
	}
)

// determinantStem reports whether a column looks like it determines other columns,
// returning the stem other column names would share with it.
func determinantStem(name string) (string, bool) {
	if stem, ok := trimSuffixes(name, determinantSuffixes); ok {
		return stem, true
	}
	if contains(referenceEntities, name) {
		return name, true
	}
	if _, ok := knownTransitivePairs[name]; ok {
		return name, true
	}
	return "", false
}

// TransitiveDependencyRule flags non-key columns that seem to depend on another non-key column
type TransitiveDependencyRule struct{ ruleBase }

func NewTransitiveDependencyRule() *TransitiveDependencyRule {
	return &TransitiveDependencyRule{ruleBase{id: "3nf.transitive_dependency", name: "No Transitive Dependencies", nf: model.NF3, weight: 0.50, confidence: 0.7}}
}

func (r *TransitiveDependencyRule) Evaluate(t *model.Table) (model.RuleResult, error) {
	nonKey := t.NonKeyColumns()

	type determinant struct {
		name string
		stem string
	}
	var determinants []determinant
	for _, c := range nonKey {
		if stem, ok := determinantStem(c.Name); ok {
			determinants = append(determinants, determinant{name: c.Name, stem: stem})
		}
	}

	var violations []model.Violation
	for _, c := range nonKey {
		best, by := 0.0, ""
		for _, d := range determinants {
			if d.name == c.Name {
				continue
			}
			conf := 0.3
			switch {
			case contains(knownTransitivePairs[d.name], c.Name):
				conf = 0.85
			case hasStem(c.Name, d.stem):
				conf = 0.7
			}
			if conf > best {
				best, by = conf, d.name
			}
		}
		if best <= 0.6 {
			continue
		}
		v := r.violation(t, c.Name, model.SeverityWarning, best)
		v.Message = fmt.Sprintf("Column %s may depend on %s rather than on the key", c.Name, by)
		v.Explanation = fmt.Sprintf("%s is a non-key column that looks like a determinant. Values of %s would repeat for every row sharing the same %s.", by, c.Name, by)
		v.Suggestion = fmt.Sprintf("Move %s into a table keyed by %s.", c.Name, by)
		violations = append(violations, v)
	}
	return r.result(violations, "no non-key column appears to determine another", fmt.Sprintf("%d column(s) look transitively dependent", len(violations))), nil
}

var (
	bcnfSuffixes = []string{"_id", "_code", "_type"}
	bcnfNames    = []string{"email", "username", "ssn", "tax_id"}
)

// BCNFRule flags determinant-like columns that are not candidate keys
type BCNFRule struct{ ruleBase }

func NewBCNFRule() *BCNFRule {
	return &BCNFRule{ruleBase{id: "3nf.bcnf", name: "Boyce-Codd Normal Form", nf: model.NF3, weight: 0.50, confidence: 0.7}}
}

func (r *BCNFRule) Evaluate(t *model.Table) (model.RuleResult, error) {
	keys := t.CandidateKeys()

	var violations []model.Violation
	for _, c := range t.Columns {
		if keys[c.Name] {
			continue
		}
		_, suffix := trimSuffixes(c.Name, bcnfSuffixes)
		if !suffix && !contains(bcnfNames, c.Name) {
			continue
		}
		v := r.violation(t, c.Name, model.SeverityWarning, 0.7)
		v.Message = fmt.Sprintf("Column %s looks like a determinant but is not a candidate key", c.Name)
		v.Explanation = "In Boyce-Codd normal form every determinant is a candidate key. Identifier-like columns outside the key set often determine other attributes."
		v.Suggestion = fmt.Sprintf("Declare %s UNIQUE if it identifies rows, or move the attributes it determines to their own table.", c.Name)
		violations = append(violations, v)
	}
	return r.result(violations, "every determinant-like column is a candidate key", fmt.Sprintf("%d determinant-like column(s) are not keys", len(violations))), nil
}
