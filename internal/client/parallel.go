// file: internal/client/parallel.go
package client

import (
	"sync"
	"time"
)

// ParallelRequest describes one call to fan out via ParallelRequests.
type ParallelRequest struct {
	Channel string
	Command string
	Args    map[string]any
	Timeout time.Duration
}

// ParallelResult pairs a ParallelRequest's position with its Outcome.
type ParallelResult struct {
	Index   int
	Outcome *Outcome
}

// ParallelRequests fans out every request concurrently and collects results
// in the same order as the input slice, regardless of completion order.
func (c *Client) ParallelRequests(requests []ParallelRequest) []ParallelResult {
	results := make([]ParallelResult, len(requests))
	var wg sync.WaitGroup
	wg.Add(len(requests))

	for i, r := range requests {
		go func(i int, r ParallelRequest) {
			defer wg.Done()
			resp, err := c.SendCommand(r.Channel, r.Command, r.Args, r.Timeout)
			results[i] = ParallelResult{Index: i, Outcome: &Outcome{Response: resp, Err: err}}
		}(i, r)
	}
	wg.Wait()
	return results
}

// Stats summarizes the client's current pending-request state.
type Stats struct {
	PendingCount     int
	OldestPendingAge time.Duration
}

// Stats returns a snapshot of pending-request statistics.
func (c *Client) Stats() Stats {
	pending := c.registry.pending()
	stats := Stats{PendingCount: len(pending)}
	now := time.Now()
	for _, h := range pending {
		age := now.Sub(h.CreatedAt)
		if age > stats.OldestPendingAge {
			stats.OldestPendingAge = age
		}
	}
	return stats
}
