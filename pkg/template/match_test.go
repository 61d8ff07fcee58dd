package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRegion(t *testing.T) {
	t.Run("no opener", func(t *testing.T) {
		_, ok, err := findRegion("nothing to see", "if", "True")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("simple region", func(t *testing.T) {
		text := "pre<if True>body</if True>post"
		r, ok, err := findRegion(text, "if", "True")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "body", r.body(text))
		assert.Equal(t, "pre", text[:r.start])
		assert.Equal(t, "post", text[r.end:])
	})

	t.Run("spans lines", func(t *testing.T) {
		text := "<for rows>\n|{{ a }}|\n</for rows>"
		r, ok, err := findRegion(text, "for", "rows")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "\n|{{ a }}|\n", r.body(text))
	})

	t.Run("first opener wins", func(t *testing.T) {
		text := "<if True>one</if True> <if True>two</if True>"
		r, ok, err := findRegion(text, "if", "True")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "one", r.body(text))
	})

	t.Run("closer matched at opener depth", func(t *testing.T) {
		text := "<if False>a<if False>b</if False>c</if False>"
		r, ok, err := findRegion(text, "if", "False")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "a<if False>b</if False>c", r.body(text))
		assert.Equal(t, len(text), r.end)
	})

	t.Run("name must match exactly", func(t *testing.T) {
		_, ok, err := findRegion("<for items>x</for items>", "for", "item")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("case sensitive", func(t *testing.T) {
		_, ok, err := findRegion("<if true>x</if true>", "if", "True")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("opener without closer", func(t *testing.T) {
		_, _, err := findRegion("<for items>dangling", "for", "items")
		var unmatched *UnmatchedTagError
		require.ErrorAs(t, err, &unmatched)
		assert.Equal(t, "<for items>", unmatched.Tag)
	})

	t.Run("nested opener without enough closers", func(t *testing.T) {
		_, _, err := findRegion("<if True>a<if True>b</if True>", "if", "True")
		var unmatched *UnmatchedTagError
		require.ErrorAs(t, err, &unmatched)
	})
}

func TestEvaluateConditionals(t *testing.T) {
	t.Run("plain text untouched", func(t *testing.T) {
		out, err := evaluateConditionals("nothing here")
		require.NoError(t, err)
		assert.Equal(t, "nothing here", out)
	})

	t.Run("false removed before true unwrapped", func(t *testing.T) {
		out, err := evaluateConditionals("<if False>drop <if True>even this</if True></if False><if True>keep</if True>")
		require.NoError(t, err)
		assert.Equal(t, "keep", out)
	})

	t.Run("multiple false regions in one text", func(t *testing.T) {
		out, err := evaluateConditionals("a<if False>x</if False>b<if False>y</if False>c")
		require.NoError(t, err)
		assert.Equal(t, "abc", out)
	})

	t.Run("idempotent once clean", func(t *testing.T) {
		once, err := evaluateConditionals("<if True>kept</if True>")
		require.NoError(t, err)
		twice, err := evaluateConditionals(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	})
}
