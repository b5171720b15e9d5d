package event

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublish_DeliversToSubscribersOfType(t *testing.T) {
	em := NewEventManager(nil)

	var used, purchased int32
	em.Subscribe(CreditsUsed, func(e Event) {
		change := e.Data.(CreditChange)
		atomic.AddInt32(&used, int32(change.Amount))
	})
	em.Subscribe(CreditsUsed, func(Event) { atomic.AddInt32(&used, 10) })
	em.Subscribe(CreditsPurchased, func(Event) { atomic.AddInt32(&purchased, 1) })

	em.Publish(Event{Type: CreditsUsed, Data: CreditChange{UserID: 1, Amount: 1}})
	em.Wait()

	assert.Equal(t, int32(11), atomic.LoadInt32(&used))
	assert.Equal(t, int32(0), atomic.LoadInt32(&purchased))
}

func TestPublish_RecoversFromPanics(t *testing.T) {
	em := NewEventManager(nil)
	var after int32
	em.Subscribe(UserDeleted, func(Event) { panic("boom") })
	em.Subscribe(UserDeleted, func(Event) { atomic.StoreInt32(&after, 1) })

	em.Publish(Event{Type: UserDeleted, Data: 7})
	em.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&after))
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "credits_used", CreditsUsed.String())
	assert.Equal(t, "event(99)", EventType(99).String())
}
