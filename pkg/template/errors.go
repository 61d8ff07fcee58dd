package template

import "fmt"

// UnmatchedTagError reports an opening tag with no corresponding closing
// tag. Tag holds the literal opener, e.g. "<if False>" or "<for items>".
type UnmatchedTagError struct {
	Tag string
}

func (e *UnmatchedTagError) Error() string {
	return fmt.Sprintf("template: unmatched %s tag", e.Tag)
}
