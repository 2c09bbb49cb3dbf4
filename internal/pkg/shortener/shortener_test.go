package shortener

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureSlug_InvalidLength(t *testing.T) {
	t.Parallel()

	_, err := GenerateSecureSlug(0)
	assert.Error(t, err)
}

func TestPostSlug(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		slug, err := PostSlug()
		require.NoError(t, err)
		require.Len(t, slug, PostSlugLength)
		assert.True(t, IsSlug(slug), slug)
		for j := 0; j < len(slug); j++ {
			assert.NotEqual(t, -1, strings.IndexByte(alphabet, slug[j]))
		}
		_, dup := seen[slug]
		assert.False(t, dup, "duplicate slug %s", slug)
		seen[slug] = struct{}{}
	}
}

func TestIsSlug(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSlug("aZ09bY18cX"))
	assert.False(t, IsSlug("short"))
	assert.False(t, IsSlug("aZ09bY18c-"))
	assert.False(t, IsSlug("12"))
}
