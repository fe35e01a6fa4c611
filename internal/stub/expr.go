package stub

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

// CheckExpressions verifies that every CWL parameter reference "$(...)" in
// the given strings is closed and parses as a JavaScript expression.
func CheckExpressions(values []string) error {
	for _, v := range values {
		refs, err := parameterReferences(v)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			if _, err := goja.Compile("parameter-reference", "("+ref+")", false); err != nil {
				return fmt.Errorf("invalid parameter reference $(%s): %w", ref, err)
			}
		}
	}
	return nil
}

// parameterReferences extracts the bodies of "$(...)" references,
// honouring nested parentheses.
func parameterReferences(s string) ([]string, error) {
	var refs []string
	for {
		start := strings.Index(s, "$(")
		if start < 0 {
			return refs, nil
		}
		depth := 0
		end := -1
		for i := start + 1; i < len(s); i++ {
			switch s[i] {
			case '(':
				depth++
			case ')':
				depth--
			}
			if depth == 0 {
				end = i
				break
			}
		}
		if end < 0 {
			return nil, fmt.Errorf("unterminated parameter reference in %q", s)
		}
		body := strings.TrimSpace(s[start+2 : end])
		if body == "" {
			return nil, fmt.Errorf("empty parameter reference in %q", s)
		}
		refs = append(refs, body)
		s = s[end+1:]
	}
}
