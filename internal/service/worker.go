package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// SyncRunner выполняет одну заявку. Реализуется SyncService-ом; в тестах
// подменяется заглушкой.
type SyncRunner interface {
	Run(ctx context.Context, job *SyncJob) SyncOutcome
}

// SyncQueue — ограниченный воркер-пул: канал заявок и N горутин. Заявки
// разных кошельков идут полностью параллельно; заявки одного кошелька
// сериализует WalletLock внутри импорта, не порядок очереди.
type SyncQueue struct {
	runner  SyncRunner
	dedup   *SyncDeduplicator
	history *JobHistory
	logger  *zap.SugaredLogger

	jobs chan queuedJob
	wg   sync.WaitGroup

	stopOnce sync.Once
}

type queuedJob struct {
	job  *SyncJob
	done chan SyncOutcome // буфер 1; закрывается после записи итога
}

func NewSyncQueue(runner SyncRunner, dedup *SyncDeduplicator, history *JobHistory,
	queueSize int, logger *zap.SugaredLogger) *SyncQueue {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &SyncQueue{
		runner:  runner,
		dedup:   dedup,
		history: history,
		logger:  logger,
		jobs:    make(chan queuedJob, queueSize),
	}
}

// Start запускает workers горутин-потребителей.
func (q *SyncQueue) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

func (q *SyncQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for qj := range q.jobs {
		outcome := q.runner.Run(ctx, qj.job)
		q.dedup.Clear(qj.job)
		q.history.Add(qj.job, outcome)
		qj.done <- outcome
		close(qj.done)
	}
}

// Enqueue ставит заявку в очередь. Дубликат RECURRING по тому же ключу не
// ставится — возвращается nil-канал и false. Заполненная очередь — тоже
// false: триггер перепоставит позже.
func (q *SyncQueue) Enqueue(job *SyncJob) (<-chan SyncOutcome, bool) {
	if existing := q.dedup.GetOrRegister(job); existing != nil {
		q.logger.Debugw("sync already enqueued, skipping",
			"wallet", job.Wallet, "secondary", job.SecondaryEndpoint, "existing", existing.ID)
		return nil, false
	}
	qj := queuedJob{job: job, done: make(chan SyncOutcome, 1)}
	select {
	case q.jobs <- qj:
		return qj.done, true
	default:
		q.dedup.Clear(job)
		q.logger.Warnw("sync queue full, dropping job", "wallet", job.Wallet)
		return nil, false
	}
}

// Stop закрывает очередь и дожидается воркеров.
func (q *SyncQueue) Stop() {
	q.stopOnce.Do(func() { close(q.jobs) })
	q.wg.Wait()
}
