package objectstore

import (
	"encoding/base64"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

// SnapshotObject is the §6 state-export JSON shape for one object:
// `{ version, owner, type_tag, bcs_base64 }`.
type SnapshotObject struct {
	Version   uint64 `json:"version"`
	OwnerKind string `json:"owner"`
	TypeTag   string `json:"type_tag"`
	BCSBase64 string `json:"bcs_base64"`
}

// Snapshot renders the store's live objects into the §6 JSON object map
// (id -> SnapshotObject), supporting S6's round-trip test and the
// (interface-only, out-of-core) export/import codec layer.
func (s *Store) Snapshot() map[string]SnapshotObject {
	out := make(map[string]SnapshotObject, len(s.objects))
	for id, obj := range s.objects {
		out[id.String()] = SnapshotObject{
			Version:   obj.Version,
			OwnerKind: obj.Owner.Kind.String(),
			TypeTag:   obj.Type.String(),
			BCSBase64: base64.StdEncoding.EncodeToString(obj.BCS),
		}
	}
	return out
}

// Restore clears the store and repopulates it from a snapshot map
// produced by Snapshot, or an equivalent import (spec.md §6 JSON
// schema). ownerOf supplies the full Owner value for each id, since the
// snapshot format only carries OwnerKind as a label. replay.ImportState
// rebuilds the owner from that label alone, so the address /
// shared-version / parent payload is not restored.
func Restore(snapshot map[string]SnapshotObject, ownerOf func(id suitypes.ObjectID) suitypes.Owner) (*Store, error) {
	s := New()
	for idStr, so := range snapshot {
		id, err := suitypes.ParseAddress(idStr)
		if err != nil {
			return nil, err
		}
		raw, err := base64.StdEncoding.DecodeString(so.BCSBase64)
		if err != nil {
			return nil, err
		}
		obj := &suitypes.Object{
			ID:      id,
			Version: so.Version,
			Owner:   ownerOf(id),
			BCS:     raw,
			Digest:  Digest(raw),
		}
		s.Prime(obj)
	}
	return s, nil
}
