// Package template implements the text templating engine behind the
// gate-check summaries. It substitutes scalar values, evaluates boolean
// conditional blocks, and expands iteration blocks over plain text using
// pattern matching and repeated string rewriting - there is no parse tree.
//
// Grammar:
//
//	{{ key }}                    scalar placeholder (literal spaces required)
//	<if {{ cond }}>…</if {{ cond }}>   conditional block
//	<for key>…</for key>         iteration block
//
// Conditionals work by materialization: the scalar pass rewrites
// {{ cond }} to the literal word "True" or "False", and the conditional
// pass only ever resolves the two fixed keywords. Nested loops work the
// same way: an element value may name another list binding, so expanding
// the outer loop materializes the inner <for> tag for a later pass.
// Because of this, list bindings that drive nested loops must be declared
// outermost-first; Bindings preserves insertion order to make that
// ordering explicit rather than an accident of map iteration.
//
// Usage:
//
//	b := template.NewBindings().
//		Set("name", "Bob").
//		Set("show_age", true).
//		Set("age", 42)
//	out, err := template.Render("My name is {{ name }}. <if {{ show_age }}>{{ age }}</if {{ show_age }}>", b)
//	// out == "My name is Bob. 42"
package template

import (
	"fmt"
	"strconv"
	"strings"
)

// Element holds the scalar bindings available inside one loop iteration.
// Within an element, placeholders are substituted in sorted key order so
// that rendering stays reproducible even when one value's text contains
// another key's placeholder token.
type Element map[string]any

// binding is one named entry in an ordered Bindings sequence. Exactly one
// of scalar or list is meaningful, selected by isList.
type binding struct {
	name   string
	scalar any
	list   []Element
	isList bool
}

// Bindings is an ordered mapping from binding names to scalar values or
// lists of Elements. Insertion order is significant: the render loop
// expands list bindings in declared order, which is what lets an outer
// loop materialize the tag name of an inner one before the inner binding
// is processed.
type Bindings struct {
	pairs []binding
}

// NewBindings returns an empty ordered bindings mapping.
func NewBindings() *Bindings {
	return &Bindings{}
}

// Set adds or replaces a scalar binding. Replacing an existing name keeps
// its original position in the sequence, matching ordered-mapping
// semantics.
func (b *Bindings) Set(name string, value any) *Bindings {
	return b.put(binding{name: name, scalar: value})
}

// SetList adds or replaces a list binding that drives one loop expansion.
func (b *Bindings) SetList(name string, elements ...Element) *Bindings {
	return b.put(binding{name: name, list: elements, isList: true})
}

func (b *Bindings) put(nb binding) *Bindings {
	for i := range b.pairs {
		if b.pairs[i].name == nb.name {
			b.pairs[i] = nb
			return b
		}
	}
	b.pairs = append(b.pairs, nb)
	return b
}

// Len returns the number of bindings.
func (b *Bindings) Len() int {
	if b == nil {
		return 0
	}
	return len(b.pairs)
}

// renderScalar converts a scalar binding value to its placeholder text.
// Booleans render as "True"/"False" so that substituted conditional tags
// materialize the exact keywords the conditional pass looks for.
func renderScalar(v any) string {
	switch t := v.(type) {
	case bool:
		if t {
			return "True"
		}
		return "False"
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// placeholder returns the literal placeholder token for a binding name.
func placeholder(name string) string {
	return "{{ " + name + " }}"
}

// substituteScalars replaces every occurrence of each scalar binding's
// placeholder with its rendered value. Placeholders with no binding are
// left verbatim; that leniency is deliberate so a single pass can run
// before list-valued keys matter.
func substituteScalars(text string, b *Bindings) string {
	if b == nil {
		return text
	}
	for _, p := range b.pairs {
		if p.isList {
			continue
		}
		text = strings.ReplaceAll(text, placeholder(p.name), renderScalar(p.scalar))
	}
	return text
}

// Render builds the output text from a template and a set of bindings.
//
// The passes run in a fixed order: scalars first (which materializes
// conditional keywords and inner loop tag names), then conditionals, then
// one loop expansion per list binding in declared order, then a final
// conditional pass for tags that only became literal inside expanded loop
// bodies. Render is a pure function of its inputs; on failure it returns
// an *UnmatchedTagError and no partial output.
func Render(template string, bindings *Bindings) (string, error) {
	text := substituteScalars(template, bindings)

	text, err := evaluateConditionals(text)
	if err != nil {
		return "", err
	}

	if bindings != nil {
		for _, p := range bindings.pairs {
			if !p.isList {
				continue
			}
			text, err = expandLoop(text, p.name, p.list)
			if err != nil {
				return "", err
			}
		}
	}

	text, err = evaluateConditionals(text)
	if err != nil {
		return "", err
	}
	return text, nil
}
