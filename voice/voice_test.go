package voice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"folklorovich/retry"
)

func TestResolveKnownProfile(t *testing.T) {
	p := Resolve("mysterious_elder")
	assert.Equal(t, "ru-RU-SvetlanaNeural", p.Voice)
	assert.Equal(t, "-10%", p.Rate)
	assert.Equal(t, "-10Hz", p.Pitch)
}

func TestResolveUnknownFallsBack(t *testing.T) {
	assert.Equal(t, DefaultProfiles["warm_grandfather"], Resolve("no_such_profile"))
	assert.Equal(t, DefaultProfiles["warm_grandfather"], Resolve(""))
}

func TestValidateDuration(t *testing.T) {
	e := NewEdgeTTS(t.TempDir(), 15, 45, retry.Policy{MaxAttempts: 1, Sleep: func(time.Duration) {}})

	assert.NoError(t, e.validateDuration(15))
	assert.NoError(t, e.validateDuration(30))
	assert.NoError(t, e.validateDuration(45))

	assert.ErrorIs(t, e.validateDuration(14.9), ErrSynthesis)
	assert.ErrorIs(t, e.validateDuration(45.1), ErrSynthesis)
	assert.ErrorIs(t, e.validateDuration(0), ErrSynthesis)
}

func TestSynthesizeEmptyText(t *testing.T) {
	e := NewEdgeTTS(t.TempDir(), 15, 45, retry.Policy{MaxAttempts: 1, Sleep: func(time.Duration) {}})

	_, err := e.Synthesize(context.Background(), "   ", "warm_grandfather", 0)
	assert.ErrorIs(t, err, ErrSynthesis)
	assert.ErrorContains(t, err, "empty narration")
}
