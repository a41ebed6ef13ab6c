package cli

import "errors"

// Ошибки разбора и выполнения задач.
var (
	// ErrUsage — общая ошибка использования CLI.
	ErrUsage = errors.New("usage error")

	// ErrUnknownTask — задача не найдена.
	ErrUnknownTask = errors.New("unknown task")

	// ErrInvalidArguments — неверные аргументы задачи.
	ErrInvalidArguments = errors.New("invalid task arguments")

	// ErrNoTasks — не передано ни одной задачи.
	ErrNoTasks = errors.New("no tasks given")

	// ErrHistoryDisabled — журнал не настроен (DB_URL).
	ErrHistoryDisabled = errors.New("release journal is not configured")
)
