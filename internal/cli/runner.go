package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/shaiso/deployer/internal/config"
	"github.com/shaiso/deployer/internal/domain"
	"github.com/shaiso/deployer/internal/orchestrator"
	"github.com/shaiso/deployer/internal/repo"
	"github.com/shaiso/deployer/internal/steps"
	"github.com/shaiso/deployer/internal/transport"
)

// Встроенные задачи.
const (
	TaskRelease = "release"
	TaskHistory = "history"
)

const defaultHistoryLimit = 20

// TaskInfo — задача для --list.
type TaskInfo struct {
	Name string `json:"name"`
	Doc  string `json:"doc"`
}

// TransportFactory создаёт транспорт для выбранного окружения.
// Если транспорт реализует io.Closer, Runner закрывает его после release.
type TransportFactory func(env *domain.Environment) (transport.Transport, error)

// History читает журнал release. Реализуется repo.ReleaseRepo.
type History interface {
	List(ctx context.Context, filter repo.ReleaseFilter) ([]domain.Release, error)
}

// RunnerConfig — конфигурация Runner.
type RunnerConfig struct {
	// Selectors — задачи окружений.
	Selectors *config.Selectors

	// Base — конфигурация до выбора окружения.
	Base domain.Environment

	// NewTransport — фабрика транспорта (SSH или dry-run).
	NewTransport TransportFactory

	// Orchestrator — конфигурация оркестратора без Registry.
	Orchestrator orchestrator.Config

	// History — журнал для задачи history (опционально).
	History History

	// Output
	Output *Output

	// Logger
	Logger *slog.Logger
}

// Runner выполняет задачи командной строки по порядку.
type Runner struct {
	cfg    RunnerConfig
	logger *slog.Logger
}

// NewRunner создаёт новый Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Selectors == nil {
		cfg.Selectors = config.DefaultSelectors()
	}
	if cfg.Output == nil {
		cfg.Output = NewOutput(false)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Orchestrator.Logger == nil {
		cfg.Orchestrator.Logger = logger
	}

	return &Runner{cfg: cfg, logger: logger}
}

// Tasks возвращает все задачи: окружения и встроенные.
func (r *Runner) Tasks() []TaskInfo {
	var tasks []TaskInfo

	for _, sel := range r.cfg.Selectors.List() {
		tasks = append(tasks, TaskInfo{Name: sel.Name, Doc: sel.Doc})
	}

	tasks = append(tasks,
		TaskInfo{Name: TaskRelease, Doc: "Perform a release (release:GIT_REF)"},
		TaskInfo{Name: TaskHistory, Doc: "Show recent releases from the journal (history:LIMIT)"},
	)

	return tasks
}

// Run выполняет задачи слева направо и останавливается на первой ошибке.
func (r *Runner) Run(ctx context.Context, invs []Invocation) error {
	if len(invs) == 0 {
		return ErrNoTasks
	}

	// Сначала проверяем имена, чтобы опечатка в конце не оставила
	// release выполненным.
	for _, inv := range invs {
		if !r.isTask(inv.Name) {
			return fmt.Errorf("%w: %s", ErrUnknownTask, inv.Name)
		}
	}

	env := r.cfg.Base.Clone()

	for _, inv := range invs {
		var err error

		r.logger.Debug("running task", "task", inv.String())

		switch inv.Name {
		case TaskRelease:
			err = r.release(ctx, &env, inv)
		case TaskHistory:
			err = r.history(ctx, &env, inv)
		default:
			env, err = r.selectEnvironment(env, inv)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (r *Runner) isTask(name string) bool {
	return name == TaskRelease || name == TaskHistory || r.cfg.Selectors.Has(name)
}

// selectEnvironment применяет задачу окружения.
func (r *Runner) selectEnvironment(env domain.Environment, inv Invocation) (domain.Environment, error) {
	if len(inv.Args) > 0 || len(inv.Kwargs) > 0 {
		return env, fmt.Errorf("%w: %s takes no arguments", ErrInvalidArguments, inv.Name)
	}

	sel, err := r.cfg.Selectors.Get(inv.Name)
	if err != nil {
		return env, fmt.Errorf("%w: %s", ErrUnknownTask, inv.Name)
	}

	r.logger.Debug("environment selected", "environment", inv.Name)
	return sel.Select(env), nil
}

// release выполняет release на выбранном окружении.
func (r *Runner) release(ctx context.Context, env *domain.Environment, inv Invocation) error {
	ref, err := releaseRef(inv)
	if err != nil {
		return err
	}

	// Транспорт создаётся только для выбранного окружения: без выбора
	// ошибка конфигурации важнее ошибки SSH.
	if err := orchestrator.Validate(env); err != nil {
		return err
	}

	tr, err := r.cfg.NewTransport(env)
	if err != nil {
		return &orchestrator.HostError{Kind: orchestrator.ErrConfiguration, Step: "connect", Err: err}
	}
	if c, ok := tr.(io.Closer); ok {
		defer c.Close()
	}

	ocfg := r.cfg.Orchestrator
	ocfg.Registry = steps.DefaultRegistry(tr)
	if ocfg.Reporter == nil {
		ocfg.Reporter = r.cfg.Output
	}

	release, err := orchestrator.New(ocfg).Release(ctx, env, ref)
	if release != nil {
		r.cfg.Output.Summary(release)
	}
	return err
}

// releaseRef возвращает git-ссылку из release:REF или release:ref=REF.
func releaseRef(inv Invocation) (string, error) {
	for k := range inv.Kwargs {
		if k != "ref" {
			return "", fmt.Errorf("%w: release: unknown argument %q", ErrInvalidArguments, k)
		}
	}

	positional := len(inv.Args)
	if _, ok := inv.Kwargs["ref"]; ok {
		positional++
	}
	if positional > 1 {
		return "", fmt.Errorf("%w: release takes at most one ref", ErrInvalidArguments)
	}

	ref, _ := inv.Arg("ref", 0)
	return ref, nil
}

// history выводит последние release из журнала.
func (r *Runner) history(ctx context.Context, env *domain.Environment, inv Invocation) error {
	if r.cfg.History == nil {
		return ErrHistoryDisabled
	}

	limit := defaultHistoryLimit
	if v, ok := inv.Arg("limit", 0); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: history: limit must be a positive integer, got %q", ErrInvalidArguments, v)
		}
		limit = n
	}

	releases, err := r.cfg.History.List(ctx, repo.ReleaseFilter{Environment: env.Name, Limit: limit})
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	r.cfg.Output.Releases(releases)
	return nil
}
