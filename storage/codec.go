package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lixenwraith/genegarden/sequence"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeTemplate(t TemplateRecord) ([]byte, error) {
	return json.Marshal(t)
}

func DecodeTemplate(data []byte) (TemplateRecord, error) {
	var rec TemplateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return TemplateRecord{}, err
	}
	if err := checkVersion(rec.VersionedRecord); err != nil {
		return TemplateRecord{}, err
	}
	return rec, nil
}

func EncodeStateRecord(s StateRecord) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeStateRecord(data []byte) (StateRecord, error) {
	var rec StateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return StateRecord{}, err
	}
	if err := checkVersion(rec.VersionedRecord); err != nil {
		return StateRecord{}, err
	}
	return rec, nil
}

// EncodeState serializes a runtime state
func EncodeState(st *sequence.State) ([]byte, error) {
	return EncodeStateRecord(NewStateRecord(st))
}

// DecodeState is the first load phase: every instance comes back unbound
func DecodeState(data []byte) (*sequence.State, error) {
	rec, err := DecodeStateRecord(data)
	if err != nil {
		return nil, err
	}
	return rec.State(), nil
}

func EncodeSnapshot(s Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	if err := checkVersion(snap.VersionedRecord); err != nil {
		return Snapshot{}, err
	}
	for _, p := range snap.Plants {
		if err := checkVersion(p.State.VersionedRecord); err != nil {
			return Snapshot{}, fmt.Errorf("plant %s: %w", p.ID, err)
		}
	}
	return snap, nil
}

func checkVersion(v VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema %d codec %d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
