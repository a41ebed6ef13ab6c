package transport

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"sync"
)

// Call — операция, записанная DryRun.
type Call struct {
	Op      string // "upload" или "run"
	Host    string
	Dir     string
	Command string
}

// DryRun — транспорт, который ничего не выполняет.
//
// Печатает операции в лог и запоминает их. Используется для --dry-run.
type DryRun struct {
	shell  string
	logger *slog.Logger

	mu    sync.Mutex
	calls []Call
}

// NewDryRun создаёт DryRun транспорт.
func NewDryRun(shell string, logger *slog.Logger) *DryRun {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRun{shell: shell, logger: logger}
}

// Upload записывает операцию копирования.
func (d *DryRun) Upload(_ context.Context, host, localPath, remoteDir string) (string, error) {
	remotePath := path.Join(remoteDir, filepath.Base(localPath))
	d.record(Call{Op: "upload", Host: host, Dir: remoteDir, Command: localPath + " -> " + remotePath})
	d.logger.Info("[dry-run] put", "host", host, "local", localPath, "remote", remotePath)
	return remotePath, nil
}

// Run записывает команду.
func (d *DryRun) Run(_ context.Context, host, dir, command string) (*Result, error) {
	d.record(Call{Op: "run", Host: host, Dir: dir, Command: command})
	d.logger.Info("[dry-run] run", "host", host, "command", BuildCommand(d.shell, dir, command))
	return &Result{}, nil
}

// Calls возвращает записанные операции.
func (d *DryRun) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

func (d *DryRun) record(c Call) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, c)
}
