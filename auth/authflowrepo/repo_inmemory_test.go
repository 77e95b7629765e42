package authflowrepo_test

import (
	"testing"
	"time"

	"github.com/shtamir/family-tv-dashboard/auth/authflowrepo"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepo(t *testing.T) {
	r := authflowrepo.NewInMemoryRepo()

	t.Run("empty state rejected", func(t *testing.T) {
		require.ErrorIs(t, r.Upsert("", &authflowrepo.AuthFlowState{}), authflowrepo.ErrEmptyState)
		_, err := r.Get("")
		require.ErrorIs(t, err, authflowrepo.ErrEmptyState)
		require.Error(t, r.Upsert("s0", nil))
	})

	t.Run("stored flows are copies", func(t *testing.T) {
		in := &authflowrepo.AuthFlowState{CodeVerifier: "v1", CreatedAt: time.Now()}
		require.NoError(t, r.Upsert("s1", in))
		in.CodeVerifier = "mutated"

		got, err := r.Get("s1")
		require.NoError(t, err)
		require.Equal(t, "v1", got.CodeVerifier)

		got.CodeVerifier = "mutated again"
		again, err := r.Get("s1")
		require.NoError(t, err)
		require.Equal(t, "v1", again.CodeVerifier)
	})

	t.Run("take consumes the flow", func(t *testing.T) {
		require.NoError(t, r.Upsert("s2", &authflowrepo.AuthFlowState{CodeVerifier: "v2"}))

		got, err := r.Take("s2")
		require.NoError(t, err)
		require.Equal(t, "v2", got.CodeVerifier)

		_, err = r.Take("s2")
		require.ErrorIs(t, err, authflowrepo.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, r.Delete("s1"))
		require.NoError(t, r.Delete("s1"))
		_, err := r.Get("s1")
		require.ErrorIs(t, err, authflowrepo.ErrNotFound)
	})
}
