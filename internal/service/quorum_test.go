package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ContentNode/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSecondary принимает /sync и отдаёт настраиваемый clock_status.
type fakeSecondary struct {
	clock        atomic.Int64
	syncRequests atomic.Int32
	hang         bool // имитация зависшего узла
}

func (s *fakeSecondary) start(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.hang {
			time.Sleep(5 * time.Second)
			return
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/sync":
			s.syncRequests.Add(1)
			w.WriteHeader(http.StatusOK)
		case strings.HasPrefix(r.URL.Path, "/users/clock_status/"):
			_ = json.NewEncoder(w).Encode(ClockStatusResponse{ClockValue: int(s.clock.Load())})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func quorumForTest(t *testing.T) (*QuorumCoordinator, *config.Config) {
	t.Helper()
	cfg := config.NewTestConfig()
	cfg.SelfEndpoint = "http://self.test"
	cfg.QuorumPollIntervalMs = 10
	cfg.ClockStatusTimeoutSec = 1
	return NewQuorumCoordinator(NewNodeClient(cfg), cfg, testLogger()), cfg
}

// Достаточно одного догнавшего secondary, даже если второй молчит.
func TestEnforceWriteQuorum_FirstSuccessWins(t *testing.T) {
	fast := &fakeSecondary{}
	fast.clock.Store(7)
	dead := &fakeSecondary{hang: true}

	fastSrv := fast.start(t)
	deadSrv := dead.start(t)

	q, _ := quorumForTest(t)
	err := q.EnforceWriteQuorum(context.Background(), "0xabc",
		[]string{deadSrv.URL, fastSrv.URL}, 7, 2*time.Second, true)
	require.NoError(t, err)
}

// Захваченный clock — нижняя граница: перегнавший secondary тоже считается.
func TestEnforceWriteQuorum_OvershootCounts(t *testing.T) {
	s := &fakeSecondary{}
	s.clock.Store(12)
	srv := s.start(t)

	q, _ := quorumForTest(t)
	err := q.EnforceWriteQuorum(context.Background(), "0xabc",
		[]string{srv.URL}, 7, 2*time.Second, true)
	require.NoError(t, err)
}

// Никто не догнал за бюджет: enforce=true — ошибка, enforce=false — нет.
func TestEnforceWriteQuorum_Timeout(t *testing.T) {
	s := &fakeSecondary{}
	s.clock.Store(3)
	srv := s.start(t)

	q, _ := quorumForTest(t)

	err := q.EnforceWriteQuorum(context.Background(), "0xabc",
		[]string{srv.URL}, 7, 150*time.Millisecond, true)
	require.Error(t, err)

	err = q.EnforceWriteQuorum(context.Background(), "0xabc",
		[]string{srv.URL}, 7, 150*time.Millisecond, false)
	assert.NoError(t, err)
}

// enforce=false: sync-заявки всё равно рассылаются (best-effort).
func TestEnforceWriteQuorum_BestEffortTriggers(t *testing.T) {
	s := &fakeSecondary{}
	srv := s.start(t)

	q, _ := quorumForTest(t)
	err := q.EnforceWriteQuorum(context.Background(), "0xabc",
		[]string{srv.URL}, 7, 100*time.Millisecond, false)
	require.NoError(t, err)

	// рассылка асинхронная
	deadline := time.Now().Add(2 * time.Second)
	for s.syncRequests.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.EqualValues(t, 1, s.syncRequests.Load())
}

// Догоняющий secondary: кворум срабатывает в пределах бюджета.
func TestEnforceWriteQuorum_CatchesUpDuringPoll(t *testing.T) {
	s := &fakeSecondary{}
	s.clock.Store(3)
	srv := s.start(t)

	go func() {
		time.Sleep(100 * time.Millisecond)
		s.clock.Store(7)
	}()

	q, _ := quorumForTest(t)
	err := q.EnforceWriteQuorum(context.Background(), "0xabc",
		[]string{srv.URL}, 7, 2*time.Second, true)
	require.NoError(t, err)
}
