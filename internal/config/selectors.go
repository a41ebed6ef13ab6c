package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shaiso/deployer/internal/domain"
)

// SelectFunc изменяет профиль под конкретное окружение.
type SelectFunc func(domain.Environment) domain.Environment

// Selector — именованный селектор окружения.
type Selector struct {
	// Name — имя задачи в CLI ("prod").
	Name string

	// Doc — однострочное описание для --list.
	Doc string

	// Select — функция выбора.
	Select SelectFunc

	builtin bool
}

// Selectors — реестр селекторов окружений. Потокобезопасен.
type Selectors struct {
	mu        sync.RWMutex
	selectors map[string]Selector
}

// NewSelectors создаёт пустой реестр.
func NewSelectors() *Selectors {
	return &Selectors{selectors: make(map[string]Selector)}
}

// DefaultSelectors создаёт реестр со встроенными окружениями.
func DefaultSelectors() *Selectors {
	s := NewSelectors()
	s.selectors[ProductionName] = Selector{
		Name:    ProductionName,
		Doc:     "Work on the production environment",
		Select:  SelectProduction,
		builtin: true,
	}
	return s
}

// Register добавляет селектор. Встроенные окружения переопределить нельзя.
func (s *Selectors) Register(sel Selector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.selectors[sel.Name]; ok && existing.builtin {
		return fmt.Errorf("%w: %s", ErrReservedEnvironment, sel.Name)
	}
	s.selectors[sel.Name] = sel
	return nil
}

// Get возвращает селектор по имени.
func (s *Selectors) Get(name string) (Selector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sel, ok := s.selectors[name]
	if !ok {
		return Selector{}, fmt.Errorf("%w: %s", ErrUnknownEnvironment, name)
	}
	return sel, nil
}

// Has проверяет, зарегистрирован ли селектор.
func (s *Selectors) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selectors[name]
	return ok
}

// List возвращает селекторы, отсортированные по имени.
func (s *Selectors) List() []Selector {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Selector, 0, len(s.selectors))
	for _, sel := range s.selectors {
		out = append(out, sel)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
