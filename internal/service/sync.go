package service

import (
	"context"
	"path/filepath"
	"sync"

	"ContentNode/internal/config"
	"ContentNode/internal/model"
	"ContentNode/internal/repo"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncService — импорт состояния пользователя с его primary (secondary-сторона).
type SyncService struct {
	users   repo.UserRepository
	imports repo.ImportRepository
	clocks  repo.ClockStore

	lock     WalletLock
	client   *NodeClient
	fetcher  ContentFetcher
	replicas ReplicaSetResolver

	cfg    *config.Config
	logger *zap.SugaredLogger

	// Счётчик попыток импорта, отбитых из-за недоступного контента.
	// Копится между попытками, сбрасывается при пересечении порога.
	mu           sync.Mutex
	syncFailures map[string]int
}

func NewSyncService(users repo.UserRepository, imports repo.ImportRepository,
	clocks repo.ClockStore, lock WalletLock, client *NodeClient,
	fetcher ContentFetcher, replicas ReplicaSetResolver,
	cfg *config.Config, logger *zap.SugaredLogger) *SyncService {
	return &SyncService{
		users:        users,
		imports:      imports,
		clocks:       clocks,
		lock:         lock,
		client:       client,
		fetcher:      fetcher,
		replicas:     replicas,
		cfg:          cfg,
		logger:       logger,
		syncFailures: map[string]int{},
	}
}

// Run выполняет одну заявку (контракт воркер-пула).
func (s *SyncService) Run(ctx context.Context, job *SyncJob) SyncOutcome {
	outcome, err := s.ImportFromPrimary(ctx, job.PrimaryEndpoint, job.Wallet, job.ForceResync)
	if err != nil {
		s.logger.Warnw("sync failed",
			"wallet", job.Wallet, "primary", job.PrimaryEndpoint,
			"outcome", outcome, "error", err)
	} else {
		s.logger.Infow("sync finished", "wallet", job.Wallet, "outcome", outcome)
	}
	return outcome
}

// ImportFromPrimary подтягивает недостающее состояние кошелька с primary и
// применяет его одной транзакцией. Идемпотентен: повтор с тем же удалённым
// состоянием после отката даёт тот же итог.
func (s *SyncService) ImportFromPrimary(ctx context.Context, primaryEndpoint, wallet string, forceResync bool) (SyncOutcome, error) {
	// Шаг 1: лок кошелька без ожидания. Занят — отваливаемся сразу,
	// триггер (дебаунс-таймер) перепоставит заявку.
	if !s.lock.TryAcquire(wallet) {
		return OutcomeSyncInProgress, syncErr(OutcomeSyncInProgress, "wallet %s: import already running", wallet)
	}
	defer s.lock.Release(wallet)

	// Шаг 2: локальный clock (forceResync — полное удаление и clock=-1).
	if forceResync {
		if err := s.users.DeleteUserState(ctx, wallet); err != nil {
			return OutcomeDBTransaction, syncErr(OutcomeDBTransaction, "force resync wipe: %w", err)
		}
		s.logger.Infow("force resync: local state wiped", "wallet", wallet)
	}
	localClock := repo.ClockUnknown
	if !forceResync {
		var err error
		localClock, err = s.users.LocalClock(ctx, wallet)
		if err != nil {
			return OutcomeDBTransaction, syncErr(OutcomeDBTransaction, "read local clock: %w", err)
		}
	}

	// Шаг 3: экспорт с primary начиная со следующего тика.
	payload, err := s.client.FetchExport(ctx, primaryEndpoint, wallet, localClock+1)
	if err != nil {
		return OutcomeExportWallet, syncErr(OutcomeExportWallet, "export from %s: %w", primaryEndpoint, err)
	}

	// Шаги 4–5: форма ответа и проверки непрерывности/консистентности.
	remote, serr := validateExport(payload, wallet, localClock)
	if serr != nil {
		return serr.Outcome, serr
	}
	switch {
	case remote.Clock < localClock:
		// Remote позади — межузловое расхождение, так быть не должно.
		return OutcomeInconsistentClock, syncErr(OutcomeInconsistentClock,
			"remote clock %d < local %d", remote.Clock, localClock)
	case remote.Clock == localClock:
		return OutcomeAlreadyUpToDate, nil
	}
	// remote.Clock == 0 при неизвестном локально пользователе: записей нет,
	// импортируется только строка пользователя.
	expectedNext := localClock + 1
	if localClock == repo.ClockUnknown {
		expectedNext = 1 // у неизвестного кошелька журнал начинается с 1
	}
	if len(remote.ClockRecords) > 0 {
		first := remote.ClockRecords[0].Clock
		if first != expectedNext {
			return OutcomeImportNotContiguous, syncErr(OutcomeImportNotContiguous,
				"first clock record %d, expected %d", first, expectedNext)
		}
		last := remote.ClockRecords[len(remote.ClockRecords)-1].Clock
		if last != remote.Clock {
			return OutcomeImportNotConsistent, syncErr(OutcomeImportNotConsistent,
				"max clock record %d != remote clock %d", last, remote.Clock)
		}
	}

	// Шаг 6: локальная идентичность стабильна между ресинками.
	localUser, err := s.users.GetByWallet(ctx, wallet)
	if err != nil {
		return OutcomeDBTransaction, syncErr(OutcomeDBTransaction, "resolve local user: %w", err)
	}
	localID := uuid.NewString()
	if localUser != nil {
		localID = localUser.ID
	}

	st := buildImportState(localID, wallet, remote)

	// Скачиваем контент до открытия транзакции. Файл, который достать не
	// удалось, помечается skipped, но строка сохраняется — непрерывность
	// clock важнее байтов.
	fetchFailures := s.fetchContent(ctx, wallet, primaryEndpoint, st)
	if fetchFailures > 0 {
		s.mu.Lock()
		s.syncFailures[wallet]++
		count := s.syncFailures[wallet]
		if count < s.cfg.SkipThreshold {
			s.mu.Unlock()
			// Порог не пройден: отбиваем импорт целиком, чтобы мигающий
			// remote не отравил локальное состояние втихую.
			return OutcomeSkipThresholdNotReached, syncErr(OutcomeSkipThresholdNotReached,
				"%d file(s) unavailable, attempt %d of %d", fetchFailures, count, s.cfg.SkipThreshold)
		}
		s.syncFailures[wallet] = 0
		s.mu.Unlock()
		s.logger.Warnw("skip threshold crossed, importing with skipped files",
			"wallet", wallet, "skipped", fetchFailures)
	}

	// Шаги 6–7: транзакция, при откате — repair clock пользователя.
	if err := s.imports.ApplyUserState(ctx, st); err != nil {
		if localUser != nil {
			if _, rerr := s.clocks.RepairUserClock(ctx, localID); rerr != nil {
				s.logger.Errorw("clock repair after rollback failed", "wallet", wallet, "error", rerr)
			}
		}
		return OutcomeDBTransaction, syncErr(OutcomeDBTransaction, "apply import: %w", err)
	}

	s.logger.Infow("import applied",
		"wallet", wallet, "fromClock", localClock, "toClock", remote.Clock,
		"records", len(remote.ClockRecords))
	return OutcomeSuccess, nil
}

// validateExport находит в ответе пользователя с нужным кошельком и
// проверяет форму. Любое нарушение — failure_malformed_export.
// Пустой журнал при ненулевом clock допустим только когда remote clock
// совпадает с локальным: догнавший secondary получает пустое окно.
func validateExport(payload *ExportPayload, wallet string, localClock int) (*ExportedUser, *SyncError) {
	if payload == nil || payload.Data.CNodeUsers == nil {
		return nil, syncErr(OutcomeMalformedExport, "empty export payload")
	}
	for _, u := range payload.Data.CNodeUsers {
		if u.WalletPublicKey != wallet {
			continue
		}
		if u.Clock < 0 {
			return nil, syncErr(OutcomeMalformedExport, "negative remote clock %d", u.Clock)
		}
		if u.Clock > 0 && len(u.ClockRecords) == 0 && u.Clock != localClock {
			return nil, syncErr(OutcomeMalformedExport, "remote clock %d but no clock records", u.Clock)
		}
		for i, r := range u.ClockRecords {
			if r.Clock < 1 {
				return nil, syncErr(OutcomeMalformedExport, "clock record with clock %d", r.Clock)
			}
			if i > 0 && r.Clock != u.ClockRecords[i-1].Clock+1 {
				return nil, syncErr(OutcomeMalformedExport, "clock records not contiguous at %d", r.Clock)
			}
		}
		return &u, nil
	}
	return nil, syncErr(OutcomeMalformedExport, "wallet %s missing from export", wallet)
}

// buildImportState перевешивает строки экспорта на локальный id пользователя.
func buildImportState(localID, wallet string, remote *ExportedUser) *repo.ImportState {
	st := &repo.ImportState{
		User: model.CNodeUser{
			ID:                localID,
			WalletPublicKey:   wallet,
			Clock:             remote.Clock,
			LatestBlockNumber: remote.LatestBlockNumber,
		},
	}
	for _, r := range remote.ClockRecords {
		st.ClockRecords = append(st.ClockRecords, model.ClockRecord{
			UserID: localID, Clock: r.Clock, SourceTable: r.SourceTable,
		})
	}
	for _, f := range remote.Files {
		st.Files = append(st.Files, model.File{
			ID:                         uuid.NewString(),
			UserID:                     localID,
			Multihash:                  f.Multihash,
			StoragePath:                StoragePathFor(f.Multihash),
			Type:                       f.Type,
			Clock:                      f.Clock,
			DigitalContentBlockchainID: f.DigitalContentBlockchainID,
			Skipped:                    f.Skipped,
		})
	}
	for _, cu := range remote.ColivingUsers {
		st.ColivingUsers = append(st.ColivingUsers, model.ColivingUser{
			ID: uuid.NewString(), UserID: localID,
			BlockchainID: cu.BlockchainID, Clock: cu.Clock,
			MetadataMultihash: cu.MetadataMultihash,
			Name:              cu.Name, Bio: cu.Bio,
		})
	}
	for _, dc := range remote.DigitalContents {
		st.Contents = append(st.Contents, model.DigitalContent{
			ID: uuid.NewString(), UserID: localID,
			BlockchainID: dc.BlockchainID, Clock: dc.Clock,
			MetadataMultihash: dc.MetadataMultihash,
			Title:             dc.Title, CoverArtSizes: dc.CoverArtSizes,
		})
	}
	for _, cl := range remote.ContentLists {
		st.ContentLists = append(st.ContentLists, model.ContentList{
			ID: uuid.NewString(), UserID: localID,
			BlockchainID: cl.BlockchainID, Clock: cl.Clock,
			MetadataMultihash: cl.MetadataMultihash, Name: cl.Name,
		})
	}
	return st
}

// fetchContent скачивает байты content-bearing файлов импорта. Возвращает
// число файлов, которые достать не удалось (они помечены skipped).
func (s *SyncService) fetchContent(ctx context.Context, wallet, primaryEndpoint string, st *repo.ImportState) int {
	// Кандидаты: primary плюс replica set кошелька, без самого себя.
	candidates := []string{primaryEndpoint}
	for _, ep := range s.replicas.Endpoints(wallet) {
		if ep != s.cfg.SelfEndpoint && ep != primaryEndpoint {
			candidates = append(candidates, ep)
		}
	}

	failures := 0
	for i := range st.Files {
		f := &st.Files[i]
		if !f.IsContentBearing() || f.Skipped {
			continue
		}
		if err := s.fetcher.Fetch(ctx, f.Multihash, f.StoragePath, candidates); err != nil {
			f.Skipped = true
			failures++
		}
	}
	return failures
}

// StoragePathFor — детерминированный относительный путь блоба в сторадже.
func StoragePathFor(multihash string) string {
	prefix := multihash
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return filepath.Join("files", prefix, multihash)
}
