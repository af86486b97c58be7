package bus

import (
	"strconv"
	"sync/atomic"
	"testing"
)

func benchEvt(t string) Event {
	return NewEvent(t, "bench", nil, nil)
}

func makeHandler(c *int64) EventHandler {
	return func(e Event) error {
		atomic.AddInt64(c, 1)
		return nil
	}
}

type nopObserver struct{}

func (nopObserver) OnPublish(eventType string, event Event)                                {}
func (nopObserver) OnDelivered(eventType string, handlers int, err error, durMicros int64) {}

func BenchmarkPublishManySubscribers(b *testing.B) {
	for _, subs := range []int{1, 4, 16, 64} {
		b.Run("subs="+strconv.Itoa(subs), func(b *testing.B) {
			bus := New()
			var c int64
			for i := 0; i < subs; i++ {
				_, _ = bus.Subscribe("playback.record", makeHandler(&c))
			}
			e := benchEvt("playback.record")
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = bus.Publish(e)
			}
		})
	}
}

func BenchmarkPublishWithWildcard(b *testing.B) {
	bus := New()
	var c int64
	_, _ = bus.Subscribe("playback.record", makeHandler(&c))
	_, _ = bus.SubscribeAll(makeHandler(&c))
	e := benchEvt("playback.record")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Publish(e)
	}
}

func BenchmarkObserverOverhead(b *testing.B) {
	bus := New()
	var c int64
	for i := 0; i < 8; i++ {
		_, _ = bus.Subscribe("playback.state", makeHandler(&c))
	}
	e := benchEvt("playback.state")
	b.Run("no-observer", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = bus.Publish(e)
		}
	})
	b.Run("with-observer", func(b *testing.B) {
		obs := nopObserver{}
		bus.AddObserver(obs)
		defer bus.RemoveObserver(obs)
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = bus.Publish(e)
		}
	})
}
