package transport

import (
	"context"
	"strings"

	"github.com/alessio/shellescape"
)

// Transport — примитивы удалённого выполнения.
type Transport interface {
	// Upload копирует локальный файл в remoteDir на хосте.
	// Возвращает полный удалённый путь.
	Upload(ctx context.Context, host, localPath, remoteDir string) (string, error)

	// Run выполняет команду на хосте в рабочей директории dir.
	// Ненулевой код выхода возвращается как *ExitError вместе с Result.
	Run(ctx context.Context, host, dir, command string) (*Result, error)
}

// Result — результат удалённой команды.
type Result struct {
	Stdout     string
	Stderr     string
	ExitStatus int
}

// BuildCommand собирает строку для SSH exec.
//
// Рабочая директория применяется только к этой команде, состояние сессии
// между вызовами не сохраняется.
//
//	BuildCommand("/bin/bash -l -c", "/data/web", `echo "deploy"`)
//	// /bin/bash -l -c 'cd /data/web && echo "deploy"'
func BuildCommand(shell, dir, command string) string {
	cmd := command
	if dir != "" {
		cmd = "cd " + shellescape.Quote(dir) + " && " + command
	}

	shell = strings.TrimSpace(shell)
	if shell == "" {
		return cmd
	}
	return shell + " " + shellescape.Quote(cmd)
}
