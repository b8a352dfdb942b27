package order

// transitions is the business-status graph. CANCELLED is reachable from
// every non-terminal state and is added in ValidNext rather than listed
// per state.
var transitions = map[Status][]Status{
	StatusPending:        {StatusConfirmed},
	StatusPendingAdvance: {StatusConfirmed},
	StatusConfirmed:      {StatusInTransit},
	StatusInTransit:      {StatusDelivered},
	StatusDelivered:      {StatusCompleted},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

// ValidNext reports whether from→to is an edge of the configured graph.
// allowSkipTransit adds the CONFIRMED→DELIVERED shortcut used by
// deployments without carrier tracking.
func ValidNext(from, to Status, allowSkipTransit bool) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	if allowSkipTransit && from == StatusConfirmed && to == StatusDelivered {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidDeliveryNext enforces strictly forward movement on the delivery
// axis.
func ValidDeliveryNext(from, to DeliveryStatus) bool {
	fromRank, ok := deliveryRank[from]
	if !ok {
		return false
	}
	toRank, ok := deliveryRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

func knownStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}
