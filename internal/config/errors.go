package config

import "errors"

// Ошибки конфигурации.
var (
	// ErrUnknownEnvironment — селектор с таким именем не зарегистрирован.
	ErrUnknownEnvironment = errors.New("unknown environment")

	// ErrReservedEnvironment — профиль пытается переопределить встроенное окружение.
	ErrReservedEnvironment = errors.New("environment name is reserved")

	// ErrInvalidProfile — YAML-профиль не прошёл валидацию.
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrInvalidSetting — значение переменной окружения не распознано.
	ErrInvalidSetting = errors.New("invalid setting")
)
