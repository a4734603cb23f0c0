package config

import "fmt"

// CompatibilityIssue is one concrete mismatch between a mock configuration
// and the constraints its data was generated under.
type CompatibilityIssue struct {
	Aspect      string `json:"aspect"`
	Detail      string `json:"detail"`
	Remediation string `json:"remediation"`
}

func (i CompatibilityIssue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Aspect, i.Detail, i.Remediation)
}

// CompatibilityReport is the result of checking a mock configuration against
// a generated configuration's constraints.
type CompatibilityReport struct {
	IsCompatible bool                 `json:"isCompatible"`
	Issues       []CompatibilityIssue `json:"issues,omitempty"`
}

func (r *CompatibilityReport) add(aspect, detail, remediation string) {
	r.Issues = append(r.Issues, CompatibilityIssue{
		Aspect:      aspect,
		Detail:      detail,
		Remediation: remediation,
	})
}

// ValidateCompatibility checks whether a mock configuration fits the
// constraints a generated configuration was built for. Every mismatch yields
// an issue with remediation text; the report is compatible only when no
// issue exists.
func ValidateCompatibility(mockCfg MockConfiguration, genCfg *GeneratedConfig) CompatibilityReport {
	report := CompatibilityReport{}
	if genCfg == nil {
		report.add("generatedConfig", "no generated configuration to compare against",
			"create a configuration with Factory.CreateConfiguration first")
		return report
	}

	cons := genCfg.Constraints

	if n := len(mockCfg.Fields); !cons.FieldCount.Contains(n) {
		report.add("fieldCount",
			fmt.Sprintf("configuration defines %d fields, constraints allow %d-%d",
				n, cons.FieldCount.Min, cons.FieldCount.Max),
			fmt.Sprintf("define between %d and %d fields or regenerate with WithFieldCount",
				cons.FieldCount.Min, cons.FieldCount.Max))
	}

	if n := len(mockCfg.ErrorScenarios); n > cons.ErrorScenarioCount.Max {
		report.add("errorScenarios",
			fmt.Sprintf("configuration carries %d error scenarios, constraints allow at most %d",
				n, cons.ErrorScenarioCount.Max),
			fmt.Sprintf("remove %d scenarios or regenerate with WithScenarioCount",
				n-cons.ErrorScenarioCount.Max))
	}

	switch {
	case mockCfg.Alignment == nil:
		report.add("alignment", "alignment flags are not set",
			"set alignment.enforceFieldRanges and alignment.enforceScenarioLimit to true")
	case !mockCfg.Alignment.EnforceFieldRanges:
		report.add("alignment.enforceFieldRanges", "field-range enforcement is disabled",
			"enable enforceFieldRanges so generated data respects field constraints")
	case !mockCfg.Alignment.EnforceScenarioLimit:
		report.add("alignment.enforceScenarioLimit", "scenario-limit enforcement is disabled",
			"enable enforceScenarioLimit so scenario counts stay within constraints")
	}

	if cons.ValidationComplexity != "" && mockCfg.ValidationBehavior != nil {
		have := mockCfg.ValidationBehavior.Complexity
		if have != "" && have.Rank() < cons.ValidationComplexity.Rank() {
			report.add("validationBehavior.complexity",
				fmt.Sprintf("configuration validates at %q, constraints expect %q", have, cons.ValidationComplexity),
				fmt.Sprintf("raise validationBehavior.complexity to %q", cons.ValidationComplexity))
		}
	}

	report.IsCompatible = len(report.Issues) == 0
	return report
}
