package cli

import (
	"errors"

	"github.com/shaiso/deployer/internal/config"
	"github.com/shaiso/deployer/internal/orchestrator"
)

// Коды выхода.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitConfiguration   = 2
	ExitTransfer        = 3
	ExitRemoteExecution = 4
)

// ExitCode возвращает код выхода для ошибки.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, orchestrator.ErrTransfer):
		return ExitTransfer
	case errors.Is(err, orchestrator.ErrRemoteExecution):
		return ExitRemoteExecution
	case errors.Is(err, orchestrator.ErrConfiguration),
		errors.Is(err, ErrUsage),
		errors.Is(err, ErrUnknownTask),
		errors.Is(err, ErrInvalidArguments),
		errors.Is(err, ErrNoTasks),
		errors.Is(err, config.ErrUnknownEnvironment),
		errors.Is(err, config.ErrReservedEnvironment),
		errors.Is(err, config.ErrInvalidProfile),
		errors.Is(err, config.ErrInvalidSetting):
		return ExitConfiguration
	default:
		return ExitFailure
	}
}
