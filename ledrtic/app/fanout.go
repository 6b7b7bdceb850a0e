package app

import "context"

// Broadcast relays every value received on in to each of outs until in is
// closed or ctx is done. A subscriber that is not ready misses the value;
// the display and its observers only care about the latest state.
//
// The out channels are closed when Broadcast returns.
func Broadcast[T any](ctx context.Context, in <-chan T, outs ...chan<- T) {
	defer func() {
		for _, out := range outs {
			close(out)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-in:
			if !ok {
				return
			}
			for _, out := range outs {
				select {
				case out <- v:
				default:
				}
			}
		}
	}
}
