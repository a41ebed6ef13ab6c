package transport

import (
	"errors"
	"fmt"
)

// Ошибки транспорта.
var (
	// ErrNoAuthMethod — не задан ни ключ, ни ssh-agent.
	ErrNoAuthMethod = errors.New("no ssh auth method configured")

	// ErrHostKey — не удалось подготовить проверку ключа хоста.
	ErrHostKey = errors.New("host key verification setup failed")

	// ErrDial — не удалось подключиться к хосту.
	ErrDial = errors.New("ssh dial failed")

	// ErrUpload — копирование файла не завершилось.
	ErrUpload = errors.New("upload failed")

	// ErrCommandFailed — удалённая команда вернула ненулевой код.
	ErrCommandFailed = errors.New("remote command failed")
)

// ExitError — удалённая команда завершилась с ненулевым кодом.
type ExitError struct {
	Status int
	Stderr string
}

// Error реализует интерфейс error.
func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("exit status %d: %s", e.Status, e.Stderr)
	}
	return fmt.Sprintf("exit status %d", e.Status)
}

// Unwrap позволяет проверять errors.Is(err, ErrCommandFailed).
func (e *ExitError) Unwrap() error {
	return ErrCommandFailed
}
