package id

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nanoidPart = regexp.MustCompile(`^[A-Za-z0-9_-]{21}$`)

func TestGenerate_PrefixedNanoID(t *testing.T) {
	for _, prefix := range []string{PrefixPost, PrefixComment, PrefixFolder, PrefixAlert} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			require.Greater(t, len(id), len(prefix)+1)
			assert.Equal(t, prefix+"-", id[:len(prefix)+1])
			assert.Regexp(t, nanoidPart, id[len(prefix)+1:])
		})
	}
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		id := MustGenerate(PrefixPost)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestCompose(t *testing.T) {
	like := Compose("post-1", "user-2")
	assert.Equal(t, "post-1_user-2", like)
	assert.Equal(t, like, Compose("post-1", "user-2"), "same pair, same record")
	assert.NotEqual(t, like, Compose("post-1", "user-3"))
	assert.Equal(t, "post-1_user-2_all", Compose("post-1", "user-2", "all"))
}

func BenchmarkGenerate(b *testing.B) {
	for b.Loop() {
		_, _ = Generate(PrefixPost)
	}
}
