package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/shaiso/deployer/internal/config"
	"github.com/shaiso/deployer/internal/domain"
	"github.com/shaiso/deployer/internal/orchestrator"
	"github.com/shaiso/deployer/internal/repo"
	"github.com/shaiso/deployer/internal/transport"
)

// recordingTransport записывает вызовы и факт закрытия.
type recordingTransport struct {
	mu      sync.Mutex
	calls   []string
	failRun bool
	closed  bool
}

func (t *recordingTransport) Upload(_ context.Context, host, localPath, remoteDir string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, "upload "+host)
	return remoteDir + "/" + localPath, nil
}

func (t *recordingTransport) Run(_ context.Context, host, dir, command string) (*transport.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, "run "+host+" "+command)
	if t.failRun {
		return &transport.Result{ExitStatus: 127}, &transport.ExitError{Status: 127}
	}
	return &transport.Result{}, nil
}

func (t *recordingTransport) Close() error {
	t.closed = true
	return nil
}

type fakeHistory struct {
	filter   repo.ReleaseFilter
	releases []domain.Release
}

func (h *fakeHistory) List(_ context.Context, filter repo.ReleaseFilter) ([]domain.Release, error) {
	h.filter = filter
	return h.releases, nil
}

type testRunner struct {
	*Runner
	tr      *recordingTransport
	users   []string
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	history *fakeHistory
}

func newTestRunner(t *testing.T) *testRunner {
	t.Helper()

	tr := &recordingTransport{}
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	r := &testRunner{tr: tr, stdout: stdout, stderr: stderr, history: &fakeHistory{}}
	r.Runner = NewRunner(RunnerConfig{
		Selectors: config.DefaultSelectors(),
		Base:      config.Base(),
		NewTransport: func(env *domain.Environment) (transport.Transport, error) {
			r.users = append(r.users, env.User)
			return tr, nil
		},
		History: r.history,
		Output:  &Output{w: stdout, errW: stderr},
		Logger:  logger,
	})
	return r
}

func mustParse(t *testing.T, args ...string) []Invocation {
	t.Helper()
	invs, err := ParseTasks(args)
	if err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return invs
}

func TestRunner_ProdRelease(t *testing.T) {
	r := newTestRunner(t)

	if err := r.Run(context.Background(), mustParse(t, "prod", "release")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	host := "prov-04.adm.dc3.dailymotion.com"
	want := []string{
		"upload " + host,
		"run " + host + ` echo "deploy"`,
		"run " + host + ` echo "http://api.dmcdn.net/all.js" | ec_purge_small`,
		"run " + host + ` echo "https://api.dmcdn.net/all.js" | ec_purge_small`,
	}
	if len(r.tr.calls) != len(want) {
		t.Fatalf("calls = %v", r.tr.calls)
	}
	for i := range want {
		if r.tr.calls[i] != want[i] {
			t.Errorf("call[%d] = %q, want %q", i, r.tr.calls[i], want[i])
		}
	}

	if len(r.users) != 1 || r.users[0] != "jenkins-ci" {
		t.Errorf("transport should be created for jenkins-ci, got %v", r.users)
	}
	if !r.tr.closed {
		t.Error("transport should be closed after release")
	}
	if !strings.Contains(r.stdout.String(), "purge") {
		t.Errorf("summary should list steps, got:\n%s", r.stdout.String())
	}
	if !strings.Contains(r.stderr.String(), "SUCCEEDED") {
		t.Errorf("expected success line, got %q", r.stderr.String())
	}
}

func TestRunner_ProgressOnStderr(t *testing.T) {
	r := newTestRunner(t)
	// Сообщения о ходе release не зависят от уровня логирования.
	r.logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}))
	r.cfg.Orchestrator.Logger = r.logger

	if err := r.Run(context.Background(), mustParse(t, "prod", "release")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := r.stderr.String()
	start := strings.Index(out, "Release in progress\n")
	end := strings.Index(out, "Ready to rock\n")
	if start < 0 || end < 0 || start > end {
		t.Errorf("expected progress messages in order, got:\n%s", out)
	}
	if strings.Contains(r.stdout.String(), "Release in progress") {
		t.Error("progress messages should not go to stdout")
	}
}

func TestRunner_ReleaseWithoutEnvironment(t *testing.T) {
	r := newTestRunner(t)

	err := r.Run(context.Background(), mustParse(t, "release"))
	if !errors.Is(err, orchestrator.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if len(r.users) != 0 || len(r.tr.calls) != 0 {
		t.Error("no transport and no remote calls expected")
	}
	if ExitCode(err) != ExitConfiguration {
		t.Errorf("exit code = %d", ExitCode(err))
	}
}

func TestRunner_SelectorOrderMatters(t *testing.T) {
	r := newTestRunner(t)

	// Окружение выбирается после release, поэтому release не видит его
	err := r.Run(context.Background(), mustParse(t, "release", "prod"))
	if !errors.Is(err, orchestrator.ErrNoEnvironment) {
		t.Fatalf("expected ErrNoEnvironment, got %v", err)
	}
}

func TestRunner_UnknownTaskBeforeAnyWork(t *testing.T) {
	r := newTestRunner(t)

	err := r.Run(context.Background(), mustParse(t, "prod", "release", "staging"))
	if !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("expected ErrUnknownTask, got %v", err)
	}
	if len(r.tr.calls) != 0 {
		t.Errorf("expected no remote calls, got %v", r.tr.calls)
	}
}

func TestRunner_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"selector with args", []string{"prod:x", "release"}},
		{"two refs", []string{"prod", "release:a,b"}},
		{"positional and named ref", []string{"prod", "release:a,ref=b"}},
		{"unknown kwarg", []string{"prod", "release:force=yes"}},
		{"bad history limit", []string{"history:abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRunner(t)
			err := r.Run(context.Background(), mustParse(t, tt.args...))
			if !errors.Is(err, ErrInvalidArguments) {
				t.Errorf("expected ErrInvalidArguments, got %v", err)
			}
			if len(r.tr.calls) != 0 {
				t.Errorf("expected no remote calls, got %v", r.tr.calls)
			}
		})
	}
}

func TestRunner_RemoteFailure(t *testing.T) {
	r := newTestRunner(t)
	r.tr.failRun = true

	err := r.Run(context.Background(), mustParse(t, "prod", "release:v1"))
	if !errors.Is(err, orchestrator.ErrRemoteExecution) {
		t.Fatalf("expected ErrRemoteExecution, got %v", err)
	}
	if ExitCode(err) != ExitRemoteExecution {
		t.Errorf("exit code = %d", ExitCode(err))
	}
	if !strings.Contains(r.stderr.String(), "Error: release prod: FAILED") {
		t.Errorf("expected failure line, got %q", r.stderr.String())
	}
	if !r.tr.closed {
		t.Error("transport should be closed after failure")
	}
}

func TestRunner_TransportError(t *testing.T) {
	r := newTestRunner(t)
	r.cfg.NewTransport = func(*domain.Environment) (transport.Transport, error) {
		return nil, transport.ErrNoAuthMethod
	}

	err := r.Run(context.Background(), mustParse(t, "prod", "release"))
	if !errors.Is(err, orchestrator.ErrConfiguration) || !errors.Is(err, transport.ErrNoAuthMethod) {
		t.Errorf("expected configuration error with cause, got %v", err)
	}
}

func TestRunner_ProfileEnvironment(t *testing.T) {
	profile, err := config.ParseProfile([]byte(`
environments:
  staging:
    user: deploy
    roles:
      app: [stage-01, stage-02]
`))
	if err != nil {
		t.Fatalf("parse profile: %v", err)
	}

	r := newTestRunner(t)
	if err := profile.Register(r.cfg.Selectors); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := r.Run(context.Background(), mustParse(t, "staging", "release")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(r.tr.calls) != 2*4 {
		t.Errorf("expected 8 calls for two hosts, got %d", len(r.tr.calls))
	}
	if r.users[0] != "deploy" {
		t.Errorf("expected user deploy, got %q", r.users[0])
	}
}

func TestRunner_History(t *testing.T) {
	r := newTestRunner(t)
	env := config.SelectProduction(config.Base())
	r.history.releases = []domain.Release{*domain.NewRelease(&env, "v1")}

	if err := r.Run(context.Background(), mustParse(t, "prod", "history:5")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.history.filter.Environment != "prod" || r.history.filter.Limit != 5 {
		t.Errorf("unexpected filter: %+v", r.history.filter)
	}
	if !strings.Contains(r.stdout.String(), "v1") {
		t.Errorf("history should print releases, got:\n%s", r.stdout.String())
	}
}

func TestRunner_HistoryDisabled(t *testing.T) {
	r := newTestRunner(t)
	r.cfg.History = nil

	if err := r.Run(context.Background(), mustParse(t, "history")); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("expected ErrHistoryDisabled, got %v", err)
	}
}

func TestRunner_Tasks(t *testing.T) {
	r := newTestRunner(t)

	tasks := r.Tasks()
	names := make([]string, len(tasks))
	for i, task := range tasks {
		names[i] = task.Name
	}

	if got := strings.Join(names, ","); got != "prod,release,history" {
		t.Errorf("tasks = %s", got)
	}
	if tasks[0].Doc != "Work on the production environment" {
		t.Errorf("unexpected prod doc %q", tasks[0].Doc)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{&orchestrator.HostError{Kind: orchestrator.ErrConfiguration, Err: orchestrator.ErrNoEnvironment}, ExitConfiguration},
		{&orchestrator.HostError{Kind: orchestrator.ErrTransfer, Err: transport.ErrUpload}, ExitTransfer},
		{&orchestrator.HostError{Kind: orchestrator.ErrRemoteExecution}, ExitRemoteExecution},
		{fmt.Errorf("%w: x", ErrUnknownTask), ExitConfiguration},
		{fmt.Errorf("load: %w", config.ErrInvalidProfile), ExitConfiguration},
		{errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
