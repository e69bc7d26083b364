package websocket

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubFansOut(t *testing.T) {
	h := NewHub(zerolog.Nop())
	a, releaseA := h.Subscribe()
	b, releaseB := h.Subscribe()
	defer releaseA()
	defer releaseB()

	h.OnEvent(session.Event{Type: session.EventSaved})

	assert.Equal(t, session.EventSaved, (<-a).Type)
	assert.Equal(t, session.EventSaved, (<-b).Type)
}

func TestHubDropsForLaggingSubscriber(t *testing.T) {
	h := NewHub(zerolog.Nop())
	ch, release := h.Subscribe()
	defer release()

	for i := 0; i < SubscriberBuffer+5; i++ {
		h.OnEvent(session.Event{Type: session.EventTick, Remaining: i})
	}

	assert.Len(t, ch, SubscriberBuffer)
	assert.Equal(t, 0, (<-ch).Remaining)
}

func TestHubReleaseAndClose(t *testing.T) {
	h := NewHub(zerolog.Nop())
	ch, release := h.Subscribe()
	release()
	release()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Zero(t, h.Subscribers())

	other, releaseOther := h.Subscribe()
	h.Close()
	_, ok = <-other
	assert.False(t, ok)
	releaseOther()

	late, _ := h.Subscribe()
	_, ok = <-late
	require.False(t, ok, "subscribing to a closed hub yields a closed channel")
}
