package pagemod_test

import (
	"testing"

	"github.com/arthur-debert/pagemod/pkg/pagemod"
	"github.com/arthur-debert/pagemod/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, opts ...pagemod.Option) (*testutil.Host, *pagemod.Manager) {
	t.Helper()
	h := testutil.NewHost()
	m, err := pagemod.NewManager(h.Bundle(), opts...)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return h, m
}

func newDefinition(t *testing.T, m *pagemod.Manager, opts pagemod.Options) *pagemod.Definition {
	t.Helper()
	def, err := m.NewDefinition(opts)
	require.NoError(t, err)
	return def
}
