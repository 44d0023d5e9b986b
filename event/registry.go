package event

import (
	"reflect"
	"sync"
)

var (
	registryMu    sync.RWMutex
	nameToType    = make(map[string]Type)
	typeToName    = make(map[Type]string)
	typeToPayload = make(map[Type]reflect.Type)
	payloadToType = make(map[reflect.Type]Type)
	registryOnce  sync.Once
)

// RegisterType maps a string name to a Type and its payload struct type
// payloadInstance may be a value or pointer to the payload struct
func RegisterType(name string, et Type, payloadInstance any) {
	registryMu.Lock()
	defer registryMu.Unlock()

	nameToType[name] = et
	typeToName[et] = name
	if payloadInstance != nil {
		t := reflect.TypeOf(payloadInstance)
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		typeToPayload[et] = t
		payloadToType[t] = et
	}
}

// GetEventType returns the Type for a given name
func GetEventType(name string) (Type, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	et, ok := nameToType[name]
	return et, ok
}

// GetEventName returns the string name for a Type
func GetEventName(et Type) string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if name, ok := typeToName[et]; ok {
		return name
	}
	return "EventUnknown"
}

// TypeOf returns the registered Type for a payload value
func TypeOf(payload any) Type {
	t := reflect.TypeOf(payload)
	if t == nil {
		return EventUnknown
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	return payloadToType[t]
}

// NewPayloadStruct returns a new pointer to a zero-value payload struct for the event type
// Returns nil if no payload is registered
func NewPayloadStruct(et Type) any {
	registryMu.RLock()
	t, ok := typeToPayload[et]
	registryMu.RUnlock()
	if !ok {
		return nil
	}
	return reflect.New(t).Interface()
}

// InitRegistry populates the registry with all engine events
// Safe to call repeatedly
func InitRegistry() {
	registryOnce.Do(func() {
		RegisterType("EventUnknown", EventUnknown, nil)

		// Sequence
		RegisterType("EventGeneExecuted", EventGeneExecuted, GeneExecuted{})
		RegisterType("EventSequenceCompleted", EventSequenceCompleted, SequenceCompleted{})
		RegisterType("EventGeneValidationFailed", EventGeneValidationFailed, GeneValidationFailed{})
		RegisterType("EventExecutionDelayed", EventExecutionDelayed, ExecutionDelayed{})
		RegisterType("EventExecutionCancelled", EventExecutionCancelled, ExecutionCancelled{})
		RegisterType("EventPassiveApplied", EventPassiveApplied, PassiveApplied{})

		// World effects
		RegisterType("EventEffectSpawned", EventEffectSpawned, EffectSpawned{})
		RegisterType("EventEffectExpired", EventEffectExpired, EffectExpired{})
		RegisterType("EventPayloadFailed", EventPayloadFailed, PayloadFailed{})

		// Creatures
		RegisterType("EventCreatureDied", EventCreatureDied, CreatureDied{})

		// Commands
		RegisterType("EventCreatureSpawnRequested", EventCreatureSpawnRequested, CreatureSpawnRequested{})
		RegisterType("EventPlantRemovalRequested", EventPlantRemovalRequested, PlantRemovalRequested{})
	})
}
