package event

import (
	"sync"
	"testing"
)

func TestPublishByType(t *testing.T) {
	bus := NewBus(nil)

	var executed []GeneExecuted
	var failed int
	Subscribe(bus, func(e GeneExecuted) { executed = append(executed, e) })
	Subscribe(bus, func(GeneValidationFailed) { failed++ })

	Publish(bus, GeneExecuted{GeneID: "g1", Position: 2, Success: true, EnergyCost: 5})

	if len(executed) != 1 || executed[0].GeneID != "g1" || executed[0].Position != 2 {
		t.Fatalf("executed = %+v", executed)
	}
	if failed != 0 {
		t.Errorf("unrelated handler invoked %d times", failed)
	}
}

func TestHandlersRunInRegistrationOrder(t *testing.T) {
	bus := NewBus(nil)
	var order []int
	for i := 0; i < 4; i++ {
		i := i
		Subscribe(bus, func(SequenceCompleted) { order = append(order, i) })
	}
	Publish(bus, SequenceCompleted{})
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v", order)
		}
	}
}

func TestUnsubscribeDuringDispatch(t *testing.T) {
	bus := NewBus(nil)
	calls := 0
	var sub Subscription
	sub = Subscribe(bus, func(GeneExecuted) {
		calls++
		bus.Unsubscribe(sub)
	})
	second := 0
	Subscribe(bus, func(GeneExecuted) { second++ })

	Publish(bus, GeneExecuted{})
	Publish(bus, GeneExecuted{})

	if calls != 1 {
		t.Errorf("self-unsubscribing handler ran %d times, want 1", calls)
	}
	if second != 2 {
		t.Errorf("sibling handler ran %d times, want 2", second)
	}
}

func TestSubscribeDuringDispatchDefersToNextPublish(t *testing.T) {
	bus := NewBus(nil)
	late := 0
	Subscribe(bus, func(GeneExecuted) {
		Subscribe(bus, func(GeneExecuted) { late++ })
	})
	Publish(bus, GeneExecuted{})
	if late != 0 {
		t.Fatalf("handler added during dispatch ran in same publish")
	}
	Publish(bus, GeneExecuted{})
	if late != 1 {
		t.Fatalf("late = %d, want 1", late)
	}
}

func TestPanickingHandlerIsolated(t *testing.T) {
	bus := NewBus(nil)
	ran := false
	Subscribe(bus, func(GeneExecuted) { panic("bad handler") })
	Subscribe(bus, func(GeneExecuted) { ran = true })
	Publish(bus, GeneExecuted{})
	if !ran {
		t.Error("handler after panicking one did not run")
	}
}

func TestSubscribeAllEnvelope(t *testing.T) {
	bus := NewBus(nil)
	bus.SetClock(func() int { return 42 })

	var got []Envelope
	bus.SubscribeAll(func(e Envelope) { got = append(got, e) })

	Publish(bus, GeneValidationFailed{GeneID: "x", Reason: "Insufficient energy"})

	if len(got) != 1 {
		t.Fatalf("got %d envelopes", len(got))
	}
	if got[0].Type != EventGeneValidationFailed || got[0].Name() != "EventGeneValidationFailed" || got[0].Tick != 42 {
		t.Errorf("envelope = %+v name=%s", got[0], got[0].Name())
	}
}

func TestPostAndDrain(t *testing.T) {
	bus := NewBus(nil)
	count := 0
	Subscribe(bus, func(CreatureDied) { count++ })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Post(CreatureDied{Creature: "c"})
		}()
	}
	wg.Wait()

	if n := bus.Drain(); n != 8 {
		t.Fatalf("drained %d, want 8", n)
	}
	if count != 8 {
		t.Errorf("handled %d, want 8", count)
	}
	if bus.Drain() != 0 {
		t.Error("second drain should be empty")
	}
}

func TestRegistryPayloadRoundTrip(t *testing.T) {
	InitRegistry()
	et, ok := GetEventType("EventEffectSpawned")
	if !ok || et != EventEffectSpawned {
		t.Fatalf("lookup = %v %v", et, ok)
	}
	if _, ok := NewPayloadStruct(et).(*EffectSpawned); !ok {
		t.Errorf("payload struct = %T", NewPayloadStruct(et))
	}
	if TypeOf(&EffectSpawned{}) != EventEffectSpawned {
		t.Error("TypeOf pointer payload mismatch")
	}
}
