package handlers

// pushLatest delivers v to a bounded event channel without blocking the store
// callback. When the buffer is full the oldest buffered event is evicted, so a
// slow client always ends up seeing the newest state.
func pushLatest[T any](events chan T, v T) {
	for {
		select {
		case events <- v:
			return
		default:
			select {
			case <-events:
			default:
			}
		}
	}
}
