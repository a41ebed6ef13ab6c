package repo

import "errors"

// Ошибки журнала.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState — release уже завершён.
	ErrInvalidState = errors.New("invalid state")
)
