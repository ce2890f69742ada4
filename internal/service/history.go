package service

import (
	"sync"
	"time"
)

// JobHistory — ограниченное кольцо завершённых заявок. Только для
// наблюдаемости; ни одно решение движка от него не зависит.
type JobHistory struct {
	mu    sync.Mutex
	limit int
	items []JobRecord
}

func NewJobHistory(limit int) *JobHistory {
	if limit <= 0 {
		limit = 100
	}
	return &JobHistory{limit: limit}
}

func (h *JobHistory) Add(job *SyncJob, outcome SyncOutcome) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = append(h.items, JobRecord{Job: *job, Outcome: outcome, FinishedAt: time.Now().UTC()})
	if len(h.items) > h.limit {
		h.items = h.items[len(h.items)-h.limit:]
	}
}

// Recent возвращает копию последних записей, свежие в конце.
func (h *JobHistory) Recent() []JobRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]JobRecord, len(h.items))
	copy(out, h.items)
	return out
}
