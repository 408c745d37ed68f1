package domain

// NormalizeLegIndex clamps a stored leg index into [0, max(len(path)-1, 0)].
// A path of length zero or one only admits index 0.
func NormalizeLegIndex(path []string, index int) int {
	n := len(path)
	if n <= 1 {
		return 0
	}
	if index < 0 {
		return 0
	}
	if index > n-1 {
		return n - 1
	}
	return index
}

// ValidateLeg checks that an event at the given warehouse is positionally
// consistent with the shipment's route. An empty route path is single-leg mode
// and always valid. pod carries no leg constraint. gate_in may occur at the
// current stop or at the immediate next stop, since it is the event that moves
// the shipment forward; load_start, load_finish, gate_out and transfer scans
// must occur at the current stop. Plain scans are unconstrained checkpoints.
func ValidateLeg(path []string, index int, warehouse string, eventType EventType, refType string) error {
	if len(path) == 0 {
		return nil
	}

	index = NormalizeLegIndex(path, index)

	switch eventType {
	case EventPOD:
		return nil
	case EventGateIn:
		if warehouse == path[index] {
			return nil
		}
		if index+1 < len(path) && warehouse == path[index+1] {
			return nil
		}
		return ErrRouteLegMismatch
	case EventLoadStart, EventLoadFinish, EventGateOut:
		if warehouse == path[index] {
			return nil
		}
		return ErrRouteLegMismatch
	case EventScan:
		if refType != RefTypeTransfer {
			return nil
		}
		if warehouse == path[index] {
			return nil
		}
		return ErrRouteLegMismatch
	default:
		return ErrRouteLegMismatch
	}
}

// NextLegIndex computes the leg index after applying an event. Only gate_in
// advances, only by exactly one step, and only when the event warehouse equals
// the next stop on the path. Skipping ahead is a no-op; every other event type
// leaves the index untouched beyond normalization.
func NextLegIndex(path []string, index int, warehouse string, eventType EventType) int {
	index = NormalizeLegIndex(path, index)
	if eventType != EventGateIn {
		return index
	}
	if index+1 < len(path) && warehouse == path[index+1] {
		return index + 1
	}
	return index
}
