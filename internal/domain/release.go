package domain

import (
	"time"

	"github.com/google/uuid"
)

// Release — одно выполнение последовательности upload → deploy → purge.
//
// Release создаётся при вызове и отбрасывается после завершения.
// ID нужен только для корреляции логов, событий и журнала.
type Release struct {
	// ID — идентификатор запуска.
	ID uuid.UUID `json:"id"`

	// Environment — имя выбранного окружения.
	Environment string `json:"environment"`

	// Project — имя проекта.
	Project string `json:"project"`

	// GitRef — git-ссылка окружения.
	GitRef string `json:"git_ref"`

	// Ref — git-ссылка, переданная оператором (release:REF). Только для информации.
	Ref string `json:"ref,omitempty"`

	// Status — текущий статус.
	Status ReleaseStatus `json:"status"`

	// Steps — результаты шагов по хостам в порядке завершения.
	Steps []StepResult `json:"steps"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки, если release завершился с FAILED.
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// NewRelease создаёт release для выбранного окружения.
func NewRelease(env *Environment, ref string) *Release {
	return &Release{
		ID:          uuid.New(),
		Environment: env.Name,
		Project:     env.Project,
		GitRef:      env.GitRef,
		Ref:         ref,
		Status:      ReleaseStatusPending,
		CreatedAt:   time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если release ещё не завершён.
func (r *Release) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// MarkRunning переводит release в статус RUNNING.
func (r *Release) MarkRunning() {
	now := time.Now()
	r.Status = ReleaseStatusRunning
	r.StartedAt = &now
}

// MarkSucceeded переводит release в статус SUCCEEDED.
func (r *Release) MarkSucceeded() {
	now := time.Now()
	r.Status = ReleaseStatusSucceeded
	r.FinishedAt = &now
}

// MarkFailed переводит release в статус FAILED с ошибкой.
func (r *Release) MarkFailed(err string) {
	now := time.Now()
	r.Status = ReleaseStatusFailed
	r.FinishedAt = &now
	r.Error = err
}

// StepResult — результат одного шага на одном хосте.
type StepResult struct {
	// Step — тип шага: "upload", "deploy", "purge".
	Step string `json:"step"`

	// Host — адрес хоста.
	Host string `json:"host"`

	// Commands — выполненные удалённые команды (для upload — описание копирования).
	Commands []string `json:"commands,omitempty"`

	// Status — SUCCEEDED или FAILED.
	Status StepStatus `json:"status"`

	// ExitStatus — код выхода последней команды, -1 если команда не запускалась.
	ExitStatus int `json:"exit_status"`

	// Output — stdout команд.
	Output string `json:"output,omitempty"`

	// Error — текст ошибки.
	Error string `json:"error,omitempty"`

	// StartedAt — время начала.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время завершения.
	FinishedAt time.Time `json:"finished_at"`
}

// Duration возвращает продолжительность шага.
func (s *StepResult) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
