package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_DispatchOrderAndIsolation(t *testing.T) {
	b := NewBus()
	var got []string
	b.Subscribe(EventBall, func(e Event) error {
		got = append(got, "first")
		return errors.New("boom")
	})
	b.Subscribe(EventBall, func(e Event) error {
		got = append(got, "second:"+e.MatchID)
		return nil
	})
	b.Subscribe(EventStateChanged, func(Event) error {
		got = append(got, "wrong type")
		return nil
	})

	b.Publish(New(EventBall, "m1", BallEvent{Runs: 4}))
	assert.Equal(t, []string{"first", "second:m1"}, got)
}

func TestNew_AssignsIDs(t *testing.T) {
	a := New(EventStateChanged, "m1", nil)
	b := New(EventStateChanged, "m1", nil)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Timestamp.IsZero())
}
