package template

import (
	"sort"
	"strings"
)

// expandLoop replaces the first <for key>…</for key> region with one copy
// of the body per element, concatenated in list order. A list binding with
// no matching tag in the text is a silent no-op. Substitution is
// element-local: only the element's own keys are replaced in its body
// instance, and unknown placeholders stay verbatim. An empty element list
// expands to the empty string, which still removes the tags and body.
func expandLoop(text, key string, elements []Element) (string, error) {
	r, ok, err := findRegion(text, "for", key)
	if err != nil {
		return "", err
	}
	if !ok {
		return text, nil
	}

	body := r.body(text)
	var expanded strings.Builder
	for _, el := range elements {
		expanded.WriteString(substituteElement(body, el))
	}

	return text[:r.start] + expanded.String() + text[r.end:], nil
}

// substituteElement replaces one element's placeholders in a body
// instance. Keys are applied in sorted order, not map order: when one
// value's text contains another key's placeholder token, the substitution
// order decides the output, and map iteration order would make rendering
// nondeterministic.
func substituteElement(body string, el Element) string {
	keys := make([]string, 0, len(el))
	for name := range el {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	for _, name := range keys {
		body = strings.ReplaceAll(body, placeholder(name), renderScalar(el[name]))
	}
	return body
}
