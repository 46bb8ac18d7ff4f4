package domain

// CapacityAllows decides whether one more attendee may enter the attending
// state given the event capacity and the current attending count. A nil
// capacity means unlimited.
//
// This is a pure decision over counts. The caller must obtain the count and
// perform the admitting write inside the same transaction; checking here and
// writing later races against concurrent admissions.
func CapacityAllows(capacity *int, attendingCount int) bool {
	if capacity == nil {
		return true
	}
	return attendingCount < *capacity
}
