package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

// Виды ошибок release.
var (
	// ErrConfiguration — окружение не выбрано или конфигурация невалидна.
	// Удалённых вызовов не было.
	ErrConfiguration = errors.New("configuration error")

	// ErrTransfer — копирование артефакта на хост не завершилось.
	ErrTransfer = errors.New("transfer error")

	// ErrRemoteExecution — удалённая команда завершилась с ошибкой.
	ErrRemoteExecution = errors.New("remote execution error")

	// ErrNoEnvironment — release вызван без выбора окружения.
	ErrNoEnvironment = errors.New("no environment selected")

	// ErrNoHosts — в группе app нет хостов.
	ErrNoHosts = errors.New("app host group is empty")
)

// HostError — ошибка шага на конкретном хосте.
//
// errors.Is(err, ErrTransfer) и т.п. проверяют вид ошибки,
// errors.As на ошибку транспорта тоже работает.
type HostError struct {
	// Kind — ErrConfiguration, ErrTransfer или ErrRemoteExecution.
	Kind error

	Step       string
	Host       string
	Command    string
	ExitStatus int
	Stderr     string

	// Err — исходная ошибка.
	Err error
}

// Error реализует интерфейс error.
func (e *HostError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%v: step %s", e.Kind, e.Step)
	if e.Host != "" {
		fmt.Fprintf(&b, " on %s", e.Host)
	}
	if e.Command != "" {
		fmt.Fprintf(&b, " (%s)", e.Command)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}

	return b.String()
}

// Unwrap возвращает вид ошибки и исходную ошибку.
func (e *HostError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
