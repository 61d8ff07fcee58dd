package template

// evaluateConditionals resolves every literal <if False> and <if True>
// region in the text. False regions are removed wholesale, tags and body;
// True regions are replaced by their body with the tags stripped. False
// runs first so that True regions nested inside a false branch never
// surface.
//
// Every iteration strips at least one full tag pair, so the loops shrink
// the tag count monotonically; an opener left without a closer fails
// immediately with *UnmatchedTagError rather than spinning.
func evaluateConditionals(text string) (string, error) {
	for {
		r, ok, err := findRegion(text, "if", "False")
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}
		text = text[:r.start] + text[r.end:]
	}

	for {
		r, ok, err := findRegion(text, "if", "True")
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}
		text = text[:r.start] + r.body(text) + text[r.end:]
	}

	return text, nil
}
