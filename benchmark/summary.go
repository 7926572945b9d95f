package benchmark

import "time"

// Record is the outcome of one repetition.
type Record struct {
	Duration time.Duration
	Status   Status
}

// Summary reduces the records of one tuple. The zero value is ready to use.
type Summary struct {
	count  int
	sum    time.Duration
	errors []Status
	seen   map[Status]struct{}
}

func (s *Summary) Add(r Record) {
	if r.Status == StatusSuccess {
		s.count++
		s.sum += r.Duration
		return
	}
	if s.seen == nil {
		s.seen = make(map[Status]struct{})
	}
	if _, ok := s.seen[r.Status]; ok {
		return
	}
	s.seen[r.Status] = struct{}{}
	s.errors = append(s.errors, r.Status)
}

// Mean is the average duration of the successful repetitions. ok is false
// when there were none.
func (s *Summary) Mean() (mean time.Duration, ok bool) {
	if s.count == 0 {
		return 0, false
	}
	return s.sum / time.Duration(s.count), true
}

func (s *Summary) Successes() int {
	return s.count
}

// Errors returns the distinct failure codes in the order they were first seen.
func (s *Summary) Errors() []Status {
	return append([]Status(nil), s.errors...)
}
