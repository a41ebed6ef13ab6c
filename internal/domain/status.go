package domain

// ReleaseStatus — статус выполнения release.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
type ReleaseStatus string

const (
	// ReleaseStatusPending — release создан, но ещё не начал выполняться.
	ReleaseStatusPending ReleaseStatus = "PENDING"

	// ReleaseStatusRunning — release в процессе выполнения.
	ReleaseStatusRunning ReleaseStatus = "RUNNING"

	// ReleaseStatusSucceeded — все шаги выполнены на всех хостах.
	ReleaseStatusSucceeded ReleaseStatus = "SUCCEEDED"

	// ReleaseStatusFailed — release остановлен на первой ошибке.
	ReleaseStatusFailed ReleaseStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s ReleaseStatus) IsTerminal() bool {
	switch s {
	case ReleaseStatusSucceeded, ReleaseStatusFailed:
		return true
	default:
		return false
	}
}

// StepStatus — результат выполнения шага на одном хосте.
type StepStatus string

const (
	StepStatusSucceeded StepStatus = "SUCCEEDED"
	StepStatusFailed    StepStatus = "FAILED"
)
