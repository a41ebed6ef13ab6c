package orchestrator

import (
	"sync"

	"github.com/shaiso/deployer/internal/domain"
)

// ReleaseState — состояние выполняющегося release в памяти.
//
// Хосты одного шага могут завершаться параллельно, поэтому запись
// результатов идёт под мьютексом.
type ReleaseState struct {
	// Release — выполняемый release.
	Release *domain.Release

	// Env — выбранное окружение.
	Env *domain.Environment

	// Hosts — хосты группы app в порядке конфигурации.
	Hosts []string

	// plans — отрендеренные команды (step → host → commands).
	plans map[string]map[string][]string

	// results — результаты шагов в порядке завершения.
	results []domain.StepResult

	mu sync.Mutex
}

// NewReleaseState создаёт новый ReleaseState.
func NewReleaseState(release *domain.Release, env *domain.Environment, hosts []string) *ReleaseState {
	return &ReleaseState{
		Release: release,
		Env:     env,
		Hosts:   hosts,
		plans:   make(map[string]map[string][]string),
	}
}

// SetPlan сохраняет команды шага для хоста.
func (s *ReleaseState) SetPlan(step, host string, commands []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.plans[step] == nil {
		s.plans[step] = make(map[string][]string)
	}
	s.plans[step][host] = commands
}

// Plan возвращает команды шага для хоста.
func (s *ReleaseState) Plan(step, host string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plans[step][host]
}

// AddResult добавляет результат шага.
func (s *ReleaseState) AddResult(result domain.StepResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
}

// Results возвращает копию результатов.
func (s *ReleaseState) Results() []domain.StepResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.StepResult, len(s.results))
	copy(out, s.results)
	return out
}
