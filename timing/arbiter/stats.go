package arbiter

// Statistics holds the counters the arbiter collects while ticking.
type Statistics struct {
	// Ticks is the number of evaluated ticks.
	Ticks uint64

	// ActiveTicks is the number of ticks with at least one valid request.
	ActiveTicks uint64

	// StallTicks is the number of active ticks without any handshake.
	StallTicks uint64

	// Requests is the number of requests observed (rising valid, or valid
	// again after a handshake).
	Requests uint64

	// Grants is the number of completed handshakes.
	Grants uint64

	// AgeGrants counts handshakes on lanes filled by the age matrix.
	AgeGrants uint64

	// OverflowGrants counts handshakes on lanes filled by a new request.
	OverflowGrants uint64

	// Enqueues is the number of requests registered in the age matrix.
	Enqueues uint64

	// TotalLatency sums, over all handshakes, the ticks between a request's
	// arrival and its handshake.
	TotalLatency uint64

	// MaxLatency is the largest arrival-to-handshake latency.
	MaxLatency uint64

	// MaxTrackedWait is the largest number of ticks a request spent in the
	// age matrix.
	MaxTrackedWait uint64

	// PortGrants counts handshakes per port.
	PortGrants []uint64
}

// Stats returns a snapshot of the collected statistics.
func (a *Arbiter) Stats() Statistics {
	s := a.stats
	s.PortGrants = append([]uint64(nil), a.stats.PortGrants...)

	return s
}

// MeanLatency returns the average arrival-to-handshake latency in ticks.
func (s Statistics) MeanLatency() float64 {
	if s.Grants == 0 {
		return 0
	}

	return float64(s.TotalLatency) / float64(s.Grants)
}

// Throughput returns the number of handshakes per tick.
func (s Statistics) Throughput() float64 {
	if s.Ticks == 0 {
		return 0
	}

	return float64(s.Grants) / float64(s.Ticks)
}

// Fairness returns Jain's fairness index over the per-port handshake
// counts, in [1/NumEntries, 1]. It is 0 before the first handshake.
func (s Statistics) Fairness() float64 {
	var sum, sumSq float64

	for _, g := range s.PortGrants {
		x := float64(g)
		sum += x
		sumSq += x * x
	}

	if sumSq == 0 {
		return 0
	}

	return sum * sum / (float64(len(s.PortGrants)) * sumSq)
}
