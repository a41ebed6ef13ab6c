// Package orchestrator выполняет release.
//
// Orchestrator отвечает за:
//   - Проверку, что окружение выбрано и группа app не пуста
//   - Рендеринг всех команд до первого удалённого вызова
//   - Выполнение шагов upload → deploy → purge строго по порядку
//   - Остановку на первой ошибке любого хоста
//
// Повторов и отката нет.
package orchestrator
