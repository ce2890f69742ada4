package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ContentNode/internal/service"
)

func postSync(t *testing.T, env *testEnv, body service.SyncRequestBody) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/sync", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	env.router.Router.ServeHTTP(rr, req)
	return rr
}

// Контракт: ровно один кошелёк на запрос.
func TestSync_RejectsWalletBatch(t *testing.T) {
	env := newTestEnv(t)

	rr := postSync(t, env, service.SyncRequestBody{
		Wallet:              []string{"0xaaa", "0xbbb"},
		ContentNodeEndpoint: "http://primary",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wallet batch, got %d", rr.Code)
	}

	rr = postSync(t, env, service.SyncRequestBody{
		Wallet:              []string{},
		ContentNodeEndpoint: "http://primary",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty wallet list, got %d", rr.Code)
	}
}

// Immediate: заявка исполняется, ответ 200 независимо от итога импорта.
func TestSync_ImmediateExecutes(t *testing.T) {
	env := newTestEnv(t)

	rr := postSync(t, env, service.SyncRequestBody{
		Wallet:              []string{"0xabc"},
		ContentNodeEndpoint: "http://primary",
		Immediate:           true,
		SyncType:            service.SyncTypeManual,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	select {
	case job := <-env.runner.ran:
		if job.Wallet != "0xabc" || job.PrimaryEndpoint != "http://primary" {
			t.Fatalf("unexpected job: %+v", job)
		}
		if job.SyncType != service.SyncTypeManual {
			t.Fatalf("expected manual sync, got %s", job.SyncType)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job was not executed")
	}
}

// Не-immediate: заявка дебаунсится и исполняется после окна.
func TestSync_DebouncedEnqueue(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.DebounceIntervalMs = 20

	for i := 0; i < 3; i++ {
		rr := postSync(t, env, service.SyncRequestBody{
			Wallet:              []string{"0xabc"},
			ContentNodeEndpoint: "http://primary",
		})
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	}

	select {
	case <-env.runner.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced job was not executed")
	}

	// серия из трёх триггеров схлопнулась в один
	select {
	case job := <-env.runner.ran:
		t.Fatalf("expected exactly one job, got extra: %+v", job)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSync_InvalidBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/sync", bytes.NewReader([]byte("{nope")))
	rr := httptest.NewRecorder()
	env.router.Router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
