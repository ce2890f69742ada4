package service

import (
	"context"
	"fmt"

	"ContentNode/internal/config"
	"ContentNode/internal/repo"

	"go.uber.org/zap"
)

// ExportService отдаёт консистентный, ограниченный окном clock срез состояния
// пользователей. Работает на стороне primary.
type ExportService struct {
	exports repo.ExportRepository
	clocks  repo.ClockStore
	cfg     *config.Config
	logger  *zap.SugaredLogger
}

func NewExportService(exports repo.ExportRepository, clocks repo.ClockStore,
	cfg *config.Config, logger *zap.SugaredLogger) *ExportService {
	return &ExportService{exports: exports, clocks: clocks, cfg: cfg, logger: logger}
}

// Export снимает срез кошельков в окне [clockRangeMin, clockRangeMax].
// clockRangeMax <= 0 или шире лимита — окно обрезается конфигом
// MaxExportClockRange; кому нужно больше, тот ходит несколько раз,
// сдвигая clockRangeMin.
//
// forceExport=true пропускает наружу срез, не прошедший проверку
// консистентности (вызывающий принимает риск); repair планируется в
// обоих случаях.
func (s *ExportService) Export(ctx context.Context, wallets []string,
	clockRangeMin, clockRangeMax int, forceExport bool) (*ExportPayload, error) {

	if len(wallets) == 0 {
		return nil, fmt.Errorf("export: no wallets requested")
	}
	if clockRangeMin < 1 {
		clockRangeMin = 1
	}
	maxAllowed := clockRangeMin + s.cfg.MaxExportClockRange - 1
	if clockRangeMax <= 0 || clockRangeMax > maxAllowed {
		clockRangeMax = maxAllowed
	}

	states, err := s.exports.FetchUserStates(ctx, wallets, clockRangeMin, clockRangeMax)
	if err != nil {
		return nil, fmt.Errorf("export: fetch failed: %w", err)
	}

	payload := &ExportPayload{Data: ExportData{CNodeUsers: map[string]ExportedUser{}}}
	for i := range states {
		st := &states[i]

		// Проверка консистентности: max(clock) по ClockRecord в окне обязан
		// совпадать с (возможно обрезанным) clock пользователя. Расхождение
		// означает, что какая-то прошлая запись закоммитила тик без строки
		// журнала (или наоборот). Окно целиком за концом журнала — не
		// расхождение: так выглядит запрос догнавшего secondary
		// (clock_range_min = clock+1), наружу уходит пустой срез.
		maxRecord := 0
		if n := len(st.ClockRecords); n > 0 {
			maxRecord = st.ClockRecords[n-1].Clock
		}
		if st.LocalClockMax >= clockRangeMin && maxRecord != st.User.Clock {
			s.scheduleRepair(st.User.ID, st.User.WalletPublicKey)
			if !forceExport {
				return nil, fmt.Errorf("export: user %s inconsistent: max clock record %d != user clock %d",
					st.User.WalletPublicKey, maxRecord, st.User.Clock)
			}
			s.logger.Warnw("export: forcing export of inconsistent user",
				"wallet", st.User.WalletPublicKey,
				"maxClockRecord", maxRecord, "userClock", st.User.Clock)
		}

		payload.Data.CNodeUsers[st.User.ID] = exportedUser(st, clockRangeMin, clockRangeMax)
	}
	return payload, nil
}

func (s *ExportService) scheduleRepair(userID, wallet string) {
	go func() {
		clock, err := s.clocks.RepairUserClock(context.Background(), userID)
		if err != nil {
			s.logger.Errorw("export: clock repair failed", "wallet", wallet, "error", err)
			return
		}
		s.logger.Infow("export: clock repaired", "wallet", wallet, "clock", clock)
	}()
}

func exportedUser(st *repo.UserState, rangeMin, rangeMax int) ExportedUser {
	out := ExportedUser{
		WalletPublicKey:   st.User.WalletPublicKey,
		Clock:             st.User.Clock,
		LatestBlockNumber: st.User.LatestBlockNumber,
		ClockInfo: ClockInfo{
			RequestedClockRangeMin: rangeMin,
			RequestedClockRangeMax: rangeMax,
			LocalClockMax:          st.LocalClockMax,
		},
		ColivingUsers:   []WireColivingUser{},
		DigitalContents: []WireDigitalContent{},
		ContentLists:    []WireContentList{},
		Files:           []WireFile{},
		ClockRecords:    []WireClockRecord{},
	}
	for _, r := range st.ClockRecords {
		out.ClockRecords = append(out.ClockRecords, WireClockRecord{Clock: r.Clock, SourceTable: r.SourceTable})
	}
	for _, f := range st.Files {
		out.Files = append(out.Files, WireFile{
			Multihash:                  f.Multihash,
			StoragePath:                f.StoragePath,
			Type:                       f.Type,
			Clock:                      f.Clock,
			DigitalContentBlockchainID: f.DigitalContentBlockchainID,
			Skipped:                    f.Skipped,
		})
	}
	for _, cu := range st.ColivingUsers {
		out.ColivingUsers = append(out.ColivingUsers, WireColivingUser{
			BlockchainID:      cu.BlockchainID,
			Clock:             cu.Clock,
			MetadataMultihash: cu.MetadataMultihash,
			Name:              cu.Name,
			Bio:               cu.Bio,
		})
	}
	for _, dc := range st.Contents {
		out.DigitalContents = append(out.DigitalContents, WireDigitalContent{
			BlockchainID:      dc.BlockchainID,
			Clock:             dc.Clock,
			MetadataMultihash: dc.MetadataMultihash,
			Title:             dc.Title,
			CoverArtSizes:     dc.CoverArtSizes,
		})
	}
	for _, cl := range st.ContentLists {
		out.ContentLists = append(out.ContentLists, WireContentList{
			BlockchainID:      cl.BlockchainID,
			Clock:             cl.Clock,
			MetadataMultihash: cl.MetadataMultihash,
			Name:              cl.Name,
		})
	}
	return out
}
