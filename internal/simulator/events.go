package simulator

// EventIndex resolves event annotations by exact timestamp. When several
// events share a timestamp, the first one supplied wins.
type EventIndex map[string]EventAnnotation

// NewEventIndex indexes events by timestamp.
func NewEventIndex(events []Event) EventIndex {
	idx := make(EventIndex, len(events))
	for _, e := range events {
		if _, ok := idx[e.Timestamp]; ok {
			continue
		}
		idx[e.Timestamp] = EventAnnotation{Name: e.Name, Actor: e.Actor, Group: e.Group}
	}
	return idx
}

// At returns the annotation logged at timestamp, if any.
func (idx EventIndex) At(timestamp string) (EventAnnotation, bool) {
	a, ok := idx[timestamp]
	return a, ok
}
