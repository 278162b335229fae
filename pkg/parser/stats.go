package parser

// Stats counts what happened to the lines of one document.
type Stats struct {
	Pages        int                `json:"pages"`
	Lines        int                `json:"lines"`
	Transactions int                `json:"transactions"`
	Skipped      map[SkipReason]int `json:"skipped"`
}

func newStats() Stats {
	return Stats{Skipped: make(map[SkipReason]int)}
}

func (s *Stats) skip(reason SkipReason) {
	s.Skipped[reason]++
}

// SkippedTotal sums every skip reason.
func (s Stats) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

// Observer receives the outcome of every extraction run. Implementations
// must be safe for concurrent use when the parser is shared.
type Observer interface {
	ObserveExtraction(issuer string, stats Stats)
	ObserveUnrecognized()
}
