package steps

import (
	"context"
	"errors"

	"github.com/shaiso/deployer/internal/domain"
	"github.com/shaiso/deployer/internal/engine"
)

// Ошибки шагов.
var (
	// ErrStepNotFound — тип шага не найден в реестре.
	ErrStepNotFound = errors.New("step type not found")

	// ErrInvalidConfig — в окружении не хватает значений для шага.
	ErrInvalidConfig = errors.New("invalid step config")
)

// Step — интерфейс для типов шагов.
type Step interface {
	// Type возвращает тип шага.
	Type() string

	// Plan возвращает операции, которые шаг выполнит на хосте.
	// Не выполняет I/O. Ошибка означает невалидную конфигурацию.
	Plan(req *Request) ([]string, error)

	// Execute выполняет шаг на одном хосте.
	// При ошибке Response может содержать частичный результат.
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// Request — входные данные для выполнения шага на хосте.
type Request struct {
	// Env — выбранное окружение.
	Env *domain.Environment

	// Host — целевой хост.
	Host string

	// Ref — git-ссылка release (информационная).
	Ref string
}

// NewRequest создаёт новый Request.
func NewRequest(env *domain.Environment, host, ref string) *Request {
	return &Request{Env: env, Host: host, Ref: ref}
}

// templateContext возвращает контекст для рендеринга команд.
func (r *Request) templateContext() *engine.Context {
	return engine.NewContext(r.Env, r.Host, r.Ref)
}

// Response — результат выполнения шага на хосте.
type Response struct {
	// Commands — выполненные операции.
	Commands []string

	// Output — объединённый stdout команд.
	Output string

	// ExitStatus — код выхода последней команды, -1 если команда не завершилась.
	ExitStatus int
}
