package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushLatest(t *testing.T) {
	t.Run("buffers in order while capacity remains", func(t *testing.T) {
		events := make(chan int, 4)
		for i := 1; i <= 3; i++ {
			pushLatest(events, i)
		}
		require.Equal(t, []int{1, 2, 3}, drain(events))
	})

	t.Run("overflow evicts the oldest, never the newest", func(t *testing.T) {
		events := make(chan int, 4)
		for i := 1; i <= 6; i++ {
			pushLatest(events, i)
		}
		// A client that stalls through six updates still sees the final state.
		require.Equal(t, []int{3, 4, 5, 6}, drain(events))
	})
}

func drain(events chan int) []int {
	out := []int{}
	for {
		select {
		case v := <-events:
			out = append(out, v)
		default:
			return out
		}
	}
}
