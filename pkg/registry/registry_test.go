package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/arthur-debert/pagemod/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEntry struct {
	ID      int
	Pattern string
}

func TestRegister(t *testing.T) {
	reg := New[testEntry]()

	t.Run("register valid item", func(t *testing.T) {
		err := reg.Register("*.example.com", testEntry{ID: 1, Pattern: "*.example.com"})
		require.NoError(t, err)
		assert.Equal(t, 1, reg.Count())
	})

	t.Run("register with empty name", func(t *testing.T) {
		err := reg.Register("", testEntry{ID: 2})
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput), "got %v", err)
	})

	t.Run("register duplicate", func(t *testing.T) {
		err := reg.Register("*.example.com", testEntry{ID: 3})
		assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyExists), "got %v", err)

		got, err := reg.Get("*.example.com")
		require.NoError(t, err)
		assert.Equal(t, 1, got.ID, "duplicate registration must not replace the entry")
	})
}

func TestGetAndRemove(t *testing.T) {
	reg := New[testEntry]()
	require.NoError(t, reg.Register("http://example.com/*", testEntry{ID: 7}))

	got, err := reg.Get("http://example.com/*")
	require.NoError(t, err)
	assert.Equal(t, 7, got.ID)

	_, err = reg.Get("missing")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))

	require.NoError(t, reg.Remove("http://example.com/*"))
	assert.False(t, reg.Has("http://example.com/*"))

	err = reg.Remove("http://example.com/*")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestListAndValuesAreSorted(t *testing.T) {
	reg := New[testEntry]()
	for i, name := range []string{"c.org", "a.org", "b.org"} {
		require.NoError(t, reg.Register(name, testEntry{ID: i, Pattern: name}))
	}

	assert.Equal(t, []string{"a.org", "b.org", "c.org"}, reg.List())

	var patterns []string
	for _, v := range reg.Values() {
		patterns = append(patterns, v.Pattern)
	}
	assert.Equal(t, []string{"a.org", "b.org", "c.org"}, patterns)
}

func TestClear(t *testing.T) {
	reg := New[testEntry]()
	for i := 0; i < 5; i++ {
		require.NoError(t, reg.Register(fmt.Sprintf("rule%d", i), testEntry{ID: i}))
	}

	reg.Clear()

	assert.Equal(t, 0, reg.Count())
	assert.Empty(t, reg.List())
}

func TestConcurrentRegister(t *testing.T) {
	reg := New[testEntry]()
	const goroutines = 8
	const perGoroutine = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				_ = reg.Register(fmt.Sprintf("g%d-%d", g, i), testEntry{ID: i})
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, goroutines*perGoroutine, reg.Count())
}
