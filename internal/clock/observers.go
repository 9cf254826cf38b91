package clock

// Subscription identifies a registered listener for Unsubscribe.
type Subscription int

type observer[T any] struct {
	id Subscription
	fn func(T)
}

type observers[T any] struct {
	entries []observer[T]
}

func (o *observers[T]) add(id Subscription, fn func(T)) {
	o.entries = append(o.entries, observer[T]{id: id, fn: fn})
}

func (o *observers[T]) remove(id Subscription) bool {
	for i, e := range o.entries {
		if e.id == id {
			o.entries = append(o.entries[:i:i], o.entries[i+1:]...)
			return true
		}
	}
	return false
}

// emit delivers synchronously to a snapshot, so listeners may unsubscribe
// themselves while being notified.
func (o *observers[T]) emit(v T) {
	snapshot := append([]observer[T](nil), o.entries...)
	for _, e := range snapshot {
		e.fn(v)
	}
}
