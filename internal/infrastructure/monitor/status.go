package monitor

import "time"

type Status struct {
	PostgreSQL  bool      `json:"postgresql"`
	Redis       bool      `json:"redis"`
	Journal     bool      `json:"journal"`
	JournalSize int       `json:"journal_size"`
	LastCheck   time.Time `json:"last_check"`
}

// Healthy reports whether the request path dependencies are reachable. The
// journal only records failed broadcasts and does not gate health.
func (s Status) Healthy() bool {
	return s.PostgreSQL && s.Redis
}
