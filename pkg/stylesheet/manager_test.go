package stylesheet_test

import (
	"testing"

	"github.com/arthur-debert/pagemod/pkg/errors"
	"github.com/arthur-debert/pagemod/pkg/stylesheet"
	"github.com/arthur-debert/pagemod/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ReplaceNotMerge(t *testing.T) {
	service := testutil.NewStyleSheets()
	m := stylesheet.NewManager(service)

	first, err := m.Replace("", "a{}", patterns("example.com"))
	require.NoError(t, err)
	assert.True(t, m.IsRegistered(first.ID))
	assert.Equal(t, first.Content, service.Content(first.ID))

	second, err := m.Replace(first.ID, "a{}", patterns("example.com", "example.org"))
	require.NoError(t, err)
	assert.False(t, service.IsRegistered(first.ID))
	assert.Equal(t, []string{second.ID}, service.IDs())
}

func TestManager_SharedOwners(t *testing.T) {
	service := testutil.NewStyleSheets()
	m := stylesheet.NewManager(service)

	a, err := m.Replace("", "a{}", patterns("example.com"))
	require.NoError(t, err)
	b, err := m.Replace("", "a{}", patterns("example.com"))
	require.NoError(t, err)

	require.Equal(t, a.ID, b.ID)
	assert.Equal(t, 2, m.Owners(a.ID))
	assert.Equal(t, 1, service.Registrations())

	m.Release(a.ID)
	assert.True(t, service.IsRegistered(a.ID))
	m.Release(b.ID)
	assert.False(t, service.IsRegistered(a.ID))
	assert.Equal(t, 0, m.Owners(a.ID))

	m.Release(a.ID)
	m.Release("")
}

func TestManager_RegisterFailure(t *testing.T) {
	service := testutil.NewStyleSheets()
	service.Err = assert.AnError
	m := stylesheet.NewManager(service)

	_, err := m.Replace("", "a{}", nil)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrStyleSheet))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, service.IDs())

	service.Err = nil
	sheet, err := m.Replace("", "a{}", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Owners(sheet.ID))
}

func TestManager_Clear(t *testing.T) {
	service := testutil.NewStyleSheets()
	m := stylesheet.NewManager(service)

	_, err := m.Replace("", "a{}", patterns("a.org"))
	require.NoError(t, err)
	_, err = m.Replace("", "b{}", patterns("b.org"))
	require.NoError(t, err)

	m.Clear()
	assert.Empty(t, service.IDs())
}
