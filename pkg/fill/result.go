package fill

import "time"

// Event is one attempted write.
type Event struct {
	Field string `json:"field"`
	Ms    int64  `json:"ms"`
	OK    bool   `json:"ok"`
}

// Result summarises one fill pass. It is not mutated after it is returned.
type Result struct {
	Filled       int     `json:"filled"`
	Total        int     `json:"total"`
	DurationMs   int64   `json:"durationMs"`
	FileAttached int     `json:"fileAttached"`
	Timestamp    int64   `json:"timestamp"`
	Events       []Event `json:"events"`
}

// SuccessRate is filled/total as a percentage, 0 for an empty page.
func (r *Result) SuccessRate() float64 {
	if r == nil || r.Total == 0 {
		return 0
	}
	return float64(r.Filled) / float64(r.Total) * 100
}

// Slowest returns up to n events ordered by descending duration.
func (r *Result) Slowest(n int) []Event {
	if r == nil {
		return nil
	}
	out := append([]Event(nil), r.Events...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Ms > out[j-1].Ms; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func millis(d time.Duration) int64 {
	return d.Round(time.Millisecond).Milliseconds()
}
