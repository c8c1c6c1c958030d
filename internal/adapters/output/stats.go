package output

import "sync/atomic"

// Stats считает записанные файлы и байты. Безопасен для конкурентного использования.
type Stats struct {
	files atomic.Int64
	bytes atomic.Int64
}

// IncrementFiles реализует ports.Stats.
func (s *Stats) IncrementFiles() {
	s.files.Add(1)
}

// IncrementBytes реализует ports.Stats.
func (s *Stats) IncrementBytes(n int) {
	s.bytes.Add(int64(n))
}

// Snapshot возвращает текущие значения счетчиков.
func (s *Stats) Snapshot() (files, bytes int64) {
	return s.files.Load(), s.bytes.Load()
}
