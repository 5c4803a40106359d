package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPremium(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	var nilIdentity *Identity
	assert.False(t, nilIdentity.IsPremium(now), "nil identity is never premium")

	identity := &Identity{ID: 1}
	assert.False(t, identity.IsPremium(now), "no expiry means no premium")

	future := now.Add(time.Hour)
	identity.PremiumExpiry = &future
	require.True(t, identity.IsPremium(now))

	// Expiry is exclusive: at the boundary premium is gone.
	assert.False(t, identity.IsPremium(future))
	assert.False(t, identity.IsPremium(future.Add(time.Second)))
}
