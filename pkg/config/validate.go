package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getsigsim/sigsim/internal/matching"
	"github.com/getsigsim/sigsim/pkg/pattern"
)

// Issue is a single structural problem at a configuration path, for example
// "document.fields[2].name".
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// Issues aggregates structural problems. It satisfies error so loaders can
// surface every problem at once.
type Issues []Issue

func (is Issues) Error() string {
	msgs := make([]string, len(is))
	for i, issue := range is {
		msgs[i] = issue.String()
	}
	return strings.Join(msgs, "; ")
}

// Check lints the configuration structurally and returns every problem
// found, each anchored to its path. Unlike Validate, Check does not stop at
// the first problem and also compiles when-predicates and JSONPath
// selectors.
func (c *CombinedConfiguration) Check() Issues {
	var issues Issues
	ev := matching.NewEvaluator()
	if c.Document != nil {
		issues = append(issues, checkSection("document", c.Document, ev)...)
	}
	if c.Field != nil {
		issues = append(issues, checkSection("field", c.Field, ev)...)
	}
	if c.Crypto != nil {
		issues = append(issues, checkSection("crypto", c.Crypto, ev)...)
	}
	return issues
}

func checkSection(path string, cfg *MockConfiguration, ev *matching.Evaluator) Issues {
	var issues Issues
	add := func(sub, msg, hint string) {
		issues = append(issues, Issue{Path: path + "." + sub, Message: msg, Hint: hint})
	}

	names := make(map[string]int, len(cfg.Fields))
	for i, f := range cfg.Fields {
		sub := fmt.Sprintf("fields[%d]", i)
		if f.Name == "" {
			add(sub+".name", "must not be empty", "give every field a unique name")
		} else if prev, dup := names[f.Name]; dup {
			add(sub+".name", fmt.Sprintf("duplicate of fields[%d]", prev), "field names must be unique per mock")
		} else {
			names[f.Name] = i
		}
		if f.Page < 1 {
			add(sub+".page", fmt.Sprintf("page %d must be >= 1", f.Page), "")
		}
		if f.Bounds.Width < 0 || f.Bounds.Height < 0 {
			add(sub+".bounds", "width and height must not be negative", "")
		}
	}

	if ds := cfg.DocumentState; ds != nil && ds.PageCount < 0 {
		add("documentState.pageCount", fmt.Sprintf("%d must not be negative", ds.PageCount), "")
	}

	if vb := cfg.ValidationBehavior; vb != nil && vb.Complexity != "" && !ValidComplexity(vb.Complexity) {
		add("validationBehavior.complexity",
			fmt.Sprintf("unknown level %q", vb.Complexity), "use low, medium, or high")
	}

	for i, o := range cfg.Outcomes {
		sub := fmt.Sprintf("outcomes[%d]", i)
		if o.IsValid && o.ErrorType != "" {
			add(sub, fmt.Sprintf("valid outcome must not carry errorType %q", o.ErrorType), "")
		}
		if !o.IsValid && o.ErrorType == "" {
			add(sub+".errorType", "required for invalid outcomes", "")
		}
	}

	for i, s := range cfg.ErrorScenarios {
		sub := fmt.Sprintf("errorScenarios[%d]", i)
		if s.Trigger == "" {
			add(sub+".trigger", "must not be empty",
				`use an operation name, "all", or an input value`)
		}
		if s.ErrorType == "" {
			add(sub+".errorType", "must not be empty", "")
		}
		if s.Message == "" {
			add(sub+".message", "must not be empty", "")
		}
		if s.When != "" {
			if err := ev.Validate(s.When); err != nil {
				add(sub+".when", fmt.Sprintf("predicate does not compile: %v", err), "")
			}
		}
		if s.Path != "" {
			if err := matching.ValidatePath(s.Path); err != nil {
				add(sub+".path", fmt.Sprintf("invalid JSONPath: %v", err), "")
			}
		}
	}

	for _, key := range sortedPatternKeys(cfg.ErrorPatterns) {
		if key == "" {
			issues = append(issues, Issue{Path: path + ".errorPatterns", Message: "key must not be empty"})
			continue
		}
		if err := cfg.ErrorPatterns[key].Validate(); err != nil {
			add(fmt.Sprintf("errorPatterns[%s]", key), err.Error(), "")
		}
	}

	return issues
}

func sortedPatternKeys(m map[string]pattern.Pattern) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
