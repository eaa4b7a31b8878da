package record

// State tracks where a record instance is in its persistence lifecycle.
//
// The transitions, all driven by the store:
//
//	Unsaved        → PendingInsert   (staged, no stored row with this id)
//	Persisted      → PendingUpdate   (staged over an existing row)
//	PendingInsert  → Persisted       (flush succeeded)
//	PendingUpdate  → Persisted       (flush succeeded)
//	any            → PendingDelete   (staged tombstone)
//	PendingDelete  → Deleted         (flush succeeded)
//
// A failed flush leaves records in their pending states; there is no
// automatic revert of the working set.
type State uint8

const (
	// Unsaved is a freshly constructed record the store has not seen.
	Unsaved State = iota

	// PendingInsert is staged in the working set with no stored row behind it.
	PendingInsert

	// PendingUpdate is staged in the working set over an existing stored row.
	PendingUpdate

	// Persisted has a durable row whose values match the record.
	Persisted

	// PendingDelete is staged for removal.
	PendingDelete

	// Deleted had its row removed by a successful flush.
	Deleted
)

// String returns the lowercase state name used in dumps and logs.
func (s State) String() string {
	switch s {
	case Unsaved:
		return "unsaved"
	case PendingInsert:
		return "pending-insert"
	case PendingUpdate:
		return "pending-update"
	case Persisted:
		return "persisted"
	case PendingDelete:
		return "pending-delete"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}
