package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/deployer/internal/domain"
	"github.com/shaiso/deployer/internal/steps"
	"github.com/shaiso/deployer/internal/telemetry"
	"github.com/shaiso/deployer/internal/transport"
)

// Default configuration values.
const (
	defaultParallel = 1
)

// Sequence возвращает шаги release в порядке выполнения.
func Sequence() []string {
	return []string{steps.StepTypeUpload, steps.StepTypeDeploy, steps.StepTypePurge}
}

// Journal сохраняет историю release. Реализуется repo.ReleaseRepo.
type Journal interface {
	Create(ctx context.Context, release *domain.Release) error
	AddStep(ctx context.Context, releaseID uuid.UUID, result *domain.StepResult) error
	Finish(ctx context.Context, release *domain.Release) error
}

// Notifier публикует события release. Реализуется mq.Publisher.
type Notifier interface {
	PublishReleaseStarted(ctx context.Context, release *domain.Release) error
	PublishStepCompleted(ctx context.Context, releaseID uuid.UUID, result *domain.StepResult) error
	PublishReleaseFinished(ctx context.Context, release *domain.Release) error
}

// Reporter выводит пользователю сообщения о ходе release независимо
// от уровня логирования. Реализуется cli.Output.
type Reporter interface {
	Progress(msg string)
}

// Сообщения о ходе release.
const (
	messageInProgress = "Release in progress"
	messageReady      = "Ready to rock"
)

// Orchestrator выполняет release на хостах группы app.
type Orchestrator struct {
	registry *steps.Registry
	journal  Journal
	notifier Notifier
	metrics  *telemetry.Metrics
	reporter Reporter
	parallel int
	logger   *slog.Logger
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Registry — реестр шагов (steps.DefaultRegistry).
	Registry *steps.Registry

	// Journal — журнал release (опционально).
	Journal Journal

	// Notifier — публикация событий (опционально).
	Notifier Notifier

	// Metrics — метрики (опционально).
	Metrics *telemetry.Metrics

	// Reporter — сообщения о ходе release (опционально).
	Reporter Reporter

	// Parallel — сколько хостов шага выполняются одновременно (default: 1).
	Parallel int

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	parallel := cfg.Parallel
	if parallel <= 0 {
		parallel = defaultParallel
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		registry: cfg.Registry,
		journal:  cfg.Journal,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		reporter: cfg.Reporter,
		parallel: parallel,
		logger:   logger,
	}
}

// Release выполняет upload → deploy → purge для выбранного окружения.
//
// ref записывается в release и логи, но не влияет на команды.
// При ошибке конфигурации возвращает nil release и удалённых вызовов не делает.
// В остальных случаях возвращает release в статусе SUCCEEDED или FAILED.
func (o *Orchestrator) Release(ctx context.Context, env *domain.Environment, ref string) (*domain.Release, error) {
	if err := Validate(env); err != nil {
		return nil, err
	}
	group := env.Group(domain.RoleApp)

	sequence, err := o.resolve()
	if err != nil {
		return nil, err
	}

	release := domain.NewRelease(env, ref)
	state := NewReleaseState(release, env, group.Hosts)

	// Все команды рендерятся заранее: ошибка шаблона не должна оставить
	// release выполненным наполовину.
	if err := o.plan(state, sequence); err != nil {
		return nil, err
	}

	logger := telemetry.WithEnvironment(telemetry.WithReleaseID(o.logger, release.ID.String()), env.Name)
	ctx = telemetry.WithLogger(ctx, logger)

	release.MarkRunning()
	o.progress(messageInProgress)
	logger.Info(messageInProgress,
		"project", env.Project,
		"git_ref", env.GitRef,
		"ref", ref,
		"hosts", group.Hosts,
	)
	o.journalCreate(ctx, release)
	o.notifyStarted(ctx, release)

	for _, step := range sequence {
		if err := o.runStep(ctx, state, step); err != nil {
			release.Steps = state.Results()
			release.MarkFailed(err.Error())
			o.finish(ctx, release)
			logger.Error("release failed", "error", err, "duration", release.Duration())
			return release, err
		}
	}

	release.Steps = state.Results()
	release.MarkSucceeded()
	o.finish(ctx, release)
	o.progress(messageReady)
	logger.Info(messageReady, "duration", release.Duration())

	return release, nil
}

// Validate проверяет, что окружение выбрано и группа app не пуста.
func Validate(env *domain.Environment) error {
	if !env.IsSelected() {
		return &HostError{Kind: ErrConfiguration, Step: "release", Err: ErrNoEnvironment}
	}
	if env.Group(domain.RoleApp).Len() == 0 {
		return &HostError{Kind: ErrConfiguration, Step: "release", Err: ErrNoHosts}
	}
	return nil
}

// resolve находит шаги последовательности в реестре.
func (o *Orchestrator) resolve() ([]steps.Step, error) {
	if o.registry == nil {
		return nil, &HostError{Kind: ErrConfiguration, Step: "release", Err: errors.New("step registry is not set")}
	}

	sequence := make([]steps.Step, 0, len(Sequence()))
	for _, name := range Sequence() {
		step, err := o.registry.Get(name)
		if err != nil {
			return nil, &HostError{Kind: ErrConfiguration, Step: name, Err: err}
		}
		sequence = append(sequence, step)
	}

	return sequence, nil
}

// plan рендерит команды всех шагов для всех хостов.
func (o *Orchestrator) plan(state *ReleaseState, sequence []steps.Step) error {
	for _, step := range sequence {
		for _, host := range state.Hosts {
			commands, err := step.Plan(steps.NewRequest(state.Env, host, state.Release.Ref))
			if err != nil {
				return &HostError{Kind: ErrConfiguration, Step: step.Type(), Host: host, Err: err}
			}
			state.SetPlan(step.Type(), host, commands)
		}
	}
	return nil
}

// runStep выполняет шаг на всех хостах. Шаг — барьер: следующий начинается
// только после завершения текущего на всех хостах.
func (o *Orchestrator) runStep(ctx context.Context, state *ReleaseState, step steps.Step) error {
	logger := telemetry.WithStep(telemetry.FromContext(ctx), step.Type())
	logger.Debug("step started", "hosts", len(state.Hosts), "parallel", o.parallel)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallel)

	for _, host := range state.Hosts {
		// Последовательный режим: после ошибки оставшиеся хосты не запускаются.
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return &HostError{Kind: kindOf(step.Type()), Step: step.Type(), Host: host, Err: err}
			}
			return o.runHost(gctx, state, step, telemetry.WithHost(logger, host), host)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	// Отмена внешнего контекста между хостами
	if err := ctx.Err(); err != nil {
		return &HostError{Kind: kindOf(step.Type()), Step: step.Type(), Err: err}
	}

	return nil
}

// runHost выполняет шаг на одном хосте и записывает результат.
func (o *Orchestrator) runHost(ctx context.Context, state *ReleaseState, step steps.Step, logger *slog.Logger, host string) error {
	req := steps.NewRequest(state.Env, host, state.Release.Ref)

	result := domain.StepResult{
		Step:       step.Type(),
		Host:       host,
		Commands:   state.Plan(step.Type(), host),
		ExitStatus: -1,
		StartedAt:  time.Now(),
	}

	resp, err := step.Execute(ctx, req)
	result.FinishedAt = time.Now()

	if resp != nil {
		result.Commands = resp.Commands
		result.Output = resp.Output
		result.ExitStatus = resp.ExitStatus
	}

	calls := len(result.Commands)
	if step.Type() == steps.StepTypeUpload {
		calls = 1
	}

	if err != nil {
		result.Status = domain.StepStatusFailed
		result.Error = err.Error()
	} else {
		result.Status = domain.StepStatusSucceeded
	}

	state.AddResult(result)
	o.metrics.ObserveStep(result.Step, string(result.Status), calls, result.Duration())
	o.journalStep(ctx, state.Release.ID, &result)
	o.notifyStep(ctx, state.Release.ID, &result)

	if err != nil {
		logger.Error("step failed", "exit_status", result.ExitStatus, "error", err)
		return o.hostError(step.Type(), host, result, err)
	}

	logger.Info("step completed", "duration", result.Duration())
	return nil
}

// hostError строит HostError из результата шага.
func (o *Orchestrator) hostError(step, host string, result domain.StepResult, err error) *HostError {
	herr := &HostError{
		Kind:       kindOf(step),
		Step:       step,
		Host:       host,
		ExitStatus: result.ExitStatus,
		Err:        err,
	}

	if n := len(result.Commands); n > 0 {
		herr.Command = result.Commands[n-1]
	}

	var exitErr *transport.ExitError
	if errors.As(err, &exitErr) {
		herr.ExitStatus = exitErr.Status
		herr.Stderr = exitErr.Stderr
	}

	return herr
}

func (o *Orchestrator) progress(msg string) {
	if o.reporter != nil {
		o.reporter.Progress(msg)
	}
}

// kindOf возвращает вид ошибки для шага.
func kindOf(step string) error {
	if step == steps.StepTypeUpload {
		return ErrTransfer
	}
	return ErrRemoteExecution
}

// finish фиксирует итог release в журнале, событиях и метриках.
func (o *Orchestrator) finish(ctx context.Context, release *domain.Release) {
	// Журнал и события пишутся даже после отмены ctx
	ctx = context.WithoutCancel(ctx)

	finishedAt := time.Now()
	if release.FinishedAt != nil {
		finishedAt = *release.FinishedAt
	}
	o.metrics.ObserveRelease(release.Environment, string(release.Status), finishedAt)

	if o.journal != nil {
		if err := o.journal.Finish(ctx, release); err != nil {
			telemetry.FromContext(ctx).Warn("failed to finish release in journal", "error", err)
		}
	}
	if o.notifier != nil {
		if err := o.notifier.PublishReleaseFinished(ctx, release); err != nil {
			telemetry.FromContext(ctx).Warn("failed to publish release.finished", "error", err)
		}
	}
}

func (o *Orchestrator) journalCreate(ctx context.Context, release *domain.Release) {
	if o.journal == nil {
		return
	}
	if err := o.journal.Create(ctx, release); err != nil {
		telemetry.FromContext(ctx).Warn("failed to create release in journal", "error", err)
	}
}

func (o *Orchestrator) journalStep(ctx context.Context, releaseID uuid.UUID, result *domain.StepResult) {
	if o.journal == nil {
		return
	}
	if err := o.journal.AddStep(context.WithoutCancel(ctx), releaseID, result); err != nil {
		telemetry.FromContext(ctx).Warn("failed to add step to journal", "step", result.Step, "host", result.Host, "error", err)
	}
}

func (o *Orchestrator) notifyStarted(ctx context.Context, release *domain.Release) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.PublishReleaseStarted(ctx, release); err != nil {
		telemetry.FromContext(ctx).Warn("failed to publish release.started", "error", err)
	}
}

func (o *Orchestrator) notifyStep(ctx context.Context, releaseID uuid.UUID, result *domain.StepResult) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.PublishStepCompleted(context.WithoutCancel(ctx), releaseID, result); err != nil {
		telemetry.FromContext(ctx).Warn("failed to publish release.step", "step", result.Step, "host", result.Host, "error", err)
	}
}
