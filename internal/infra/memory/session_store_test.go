package memory

import (
	"testing"

	"geocraft/internal/app"
	"geocraft/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	session, err := app.NewSession("s1", "alice", sampleCountries(),
		app.NewState(domain.ModeGlobal, domain.Marathon, "", app.DefaultRules()), app.DefaultRules(), nil)
	require.NoError(t, err)

	store.Put("alice", session)
	got, ok := store.Get("alice")
	require.True(t, ok)
	require.Same(t, session, got)
	require.Equal(t, 1, store.Len())

	store.Delete("alice")
	_, ok = store.Get("alice")
	require.False(t, ok, "expected session removed")
}
