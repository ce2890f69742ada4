package service

import "fmt"

// SyncOutcome — машиночитаемый итог одной попытки синхронизации.
// Ровно одно значение на попытку; голых паник/исключений наружу не выходит.
type SyncOutcome string

const (
	OutcomeSuccess         SyncOutcome = "success"
	OutcomeAlreadyUpToDate SyncOutcome = "success_already_up_to_date"

	// Конкуренция за WalletLock: не потеря данных, вызывающий повторит позже.
	OutcomeSyncInProgress SyncOutcome = "failure_sync_in_progress"

	// Нарушения контракта удалённой стороной. Для этого вызова не ретраятся.
	OutcomeExportWallet    SyncOutcome = "failure_export_wallet"
	OutcomeMalformedExport SyncOutcome = "failure_malformed_export"

	// Нарушения целостности. Импорт всегда отменяется целиком.
	OutcomeInconsistentClock   SyncOutcome = "failure_inconsistent_clock"
	OutcomeImportNotContiguous SyncOutcome = "failure_import_not_contiguous"
	OutcomeImportNotConsistent SyncOutcome = "failure_import_not_consistent"

	// Временная недоступность контента; счётчик копится между попытками.
	OutcomeSkipThresholdNotReached SyncOutcome = "failure_skip_threshold_not_reached"

	// Локальный сбой хранилища; запускает repair и ретраится.
	OutcomeDBTransaction SyncOutcome = "failure_db_transaction"
)

// OK — завершилась ли попытка без ошибки.
func (o SyncOutcome) OK() bool {
	return o == OutcomeSuccess || o == OutcomeAlreadyUpToDate
}

// SyncError связывает итог с первопричиной.
type SyncError struct {
	Outcome SyncOutcome
	Err     error
}

func (e *SyncError) Error() string {
	if e.Err == nil {
		return string(e.Outcome)
	}
	return fmt.Sprintf("%s: %v", e.Outcome, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

func syncErr(outcome SyncOutcome, format string, args ...any) *SyncError {
	return &SyncError{Outcome: outcome, Err: fmt.Errorf(format, args...)}
}

// HTTPError — ответ удалённого узла с неуспешным статусом.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("remote returned %d: %s", e.StatusCode, e.Body)
}
