package service

import (
	"context"
	"fmt"
	"time"

	"ContentNode/internal/config"

	"go.uber.org/zap"
)

// QuorumCoordinator работает на primary после локальной записи: рассылает
// secondary-узлам manual-sync и ждёт, пока хотя бы один догонит clock записи.
// Кворум 2-из-3 считая сам primary, не полная репликация.
type QuorumCoordinator struct {
	client *NodeClient
	cfg    *config.Config
	logger *zap.SugaredLogger
}

func NewQuorumCoordinator(client *NodeClient, cfg *config.Config, logger *zap.SugaredLogger) *QuorumCoordinator {
	return &QuorumCoordinator{client: client, cfg: cfg, logger: logger}
}

// EnforceWriteQuorum: рассылка sync-заявок всем secondary параллельно, затем
// опрос clock_status до первого узла с clockValue >= primaryClock либо до
// истечения pollTimeout. primaryClock — нижняя граница: primary может
// принимать новые записи во время ожидания, secondary вправе перегнать цель.
//
// enforce=false — заявки рассылаются best-effort, ошибки только логируются.
func (c *QuorumCoordinator) EnforceWriteQuorum(ctx context.Context, wallet string,
	secondaries []string, primaryClock int, pollTimeout time.Duration, enforce bool) error {

	if pollTimeout <= 0 {
		pollTimeout = c.cfg.QuorumTimeout()
	}

	for _, ep := range secondaries {
		go func(endpoint string) {
			body := SyncRequestBody{
				Wallet:              []string{wallet},
				ContentNodeEndpoint: c.cfg.SelfEndpoint,
				Immediate:           true,
				SyncType:            SyncTypeManual,
			}
			trigCtx, cancel := context.WithTimeout(context.Background(), c.cfg.SyncRequestTimeout())
			defer cancel()
			if err := c.client.TriggerSync(trigCtx, endpoint, body); err != nil {
				c.logger.Warnw("quorum: sync trigger failed",
					"wallet", wallet, "secondary", endpoint, "error", err)
			}
		}(ep)
	}

	if !enforce {
		return nil
	}
	if len(secondaries) == 0 {
		return fmt.Errorf("write quorum: no secondaries for wallet %s", wallet)
	}

	pollCtx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	// Гонка опросов: достаточно первого успеха, проигравшие горутины
	// завершаются по отмене контекста, а не висят.
	caughtUp := make(chan string, len(secondaries))
	for _, ep := range secondaries {
		go c.pollClock(pollCtx, ep, wallet, primaryClock, caughtUp)
	}

	select {
	case ep := <-caughtUp:
		c.logger.Infow("write quorum met", "wallet", wallet, "secondary", ep, "clock", primaryClock)
		return nil
	case <-pollCtx.Done():
		return fmt.Errorf("write quorum not met for wallet %s within %s (clock %d)",
			wallet, pollTimeout, primaryClock)
	}
}

// pollClock опрашивает один secondary с фиксированным интервалом. Ошибки
// отдельных опросов глотаются: бюджет ограничивает общий контекст.
func (c *QuorumCoordinator) pollClock(ctx context.Context, endpoint, wallet string,
	target int, caughtUp chan<- string) {

	ticker := time.NewTicker(c.cfg.QuorumPollInterval())
	defer ticker.Stop()

	for {
		status, err := c.client.ClockStatus(ctx, endpoint, wallet)
		if err == nil && status.ClockValue >= target {
			select {
			case caughtUp <- endpoint:
			default: // кворум уже удовлетворён другим узлом
			}
			return
		}
		if err != nil {
			c.logger.Debugw("quorum poll attempt failed",
				"wallet", wallet, "secondary", endpoint, "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
