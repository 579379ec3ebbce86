package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		used := true
		session := domain.NewSession(sessionID, "camp-1")
		session.Phase = domain.PhaseActive
		session.MoveTo(domain.StepContactInfo)
		session.Form.Name = "Ada"
		session.Form.Rating = 5
		session.Form.UsedSevenDays = &used
		session.Campaign = &domain.CampaignView{ID: "camp-1", Marketplaces: []string{"us", "gb"}}

		err := store.Save(ctx, sessionID, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.StepContactInfo, loaded.CurrentStep)
		assert.Equal(t, session.Location, loaded.Location)
		assert.Equal(t, domain.PhaseActive, loaded.Phase)
		assert.True(t, session.Form.Equal(loaded.Form), "form should survive a round trip")
		require.NotNil(t, loaded.Campaign)
		assert.Equal(t, []string{"us", "gb"}, loaded.Campaign.Marketplaces)
	})

	t.Run("Load returns an isolated copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Form.Name = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "Ada", again.Form.Name)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewSession(sessionID, "camp-1"))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1, "camp-1"))
		_ = store.Save(ctx, id2, domain.NewSession(id2, "camp-1"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
