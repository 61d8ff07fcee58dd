package template

import "strings"

// region locates a matched tag pair within a text buffer.
type region struct {
	start     int // index of the opener's '<'
	bodyStart int // first byte of the body
	bodyEnd   int // index of the closer's '<'
	end       int // one past the closer
}

func (r region) body(text string) string { return text[r.bodyStart:r.bodyEnd] }

// findRegion locates the first region delimited by <keyword name> and its
// matching </keyword name>. Matching is case-sensitive on the literal tag
// text and spans lines. The scan is depth-aware: openers of the same tag
// inside the body are balanced against their own closers, so the region
// ends at the closer at the opener's nesting depth.
//
// ok is false when no opener exists at all. An opener with no matching
// closer is a hard failure, reported as *UnmatchedTagError.
func findRegion(text, keyword, name string) (region, bool, error) {
	opener := "<" + keyword + " " + name + ">"
	closer := "</" + keyword + " " + name + ">"

	start := strings.Index(text, opener)
	if start < 0 {
		return region{}, false, nil
	}

	bodyStart := start + len(opener)
	depth := 0
	for i := bodyStart; i < len(text); {
		switch {
		case strings.HasPrefix(text[i:], closer):
			if depth == 0 {
				return region{start: start, bodyStart: bodyStart, bodyEnd: i, end: i + len(closer)}, true, nil
			}
			depth--
			i += len(closer)
		case strings.HasPrefix(text[i:], opener):
			depth++
			i += len(opener)
		default:
			i++
		}
	}
	return region{}, false, &UnmatchedTagError{Tag: opener}
}
