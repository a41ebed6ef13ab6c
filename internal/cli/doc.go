// Package cli реализует командную строку deployer.
//
// # Задачи
//
// Аргументы командной строки — список задач в стиле fab:
//
//	deployer prod release
//	deployer prod release:v1.2.3
//	deployer prod release:ref=v1.2.3
//
// Задачи выполняются слева направо. Задача окружения (prod или
// окружение из профиля) выбирает конфигурацию, задача release
// выполняет upload → deploy → purge на выбранном окружении.
// Аргументы задачи разделяются запятой, key=value задаёт именованный
// аргумент, "\," и "\=" экранируют разделители.
//
// # Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения и логи — в stderr.
//
// # Коды выхода
//
// ExitCode переводит ошибку в код выхода: 2 для ошибок конфигурации
// и аргументов, 3 для ошибок копирования, 4 для ошибок удалённых команд,
// 1 для остального.
package cli
