// Package steps содержит шаги release.
//
// Каждый шаг реализует интерфейс Step и выполняется оркестратором
// один раз на каждый хост группы app:
//
//   - upload — копирует артефакт в TargetDir
//   - deploy — выполняет команду deploy в MakeDir
//   - purge  — сбрасывает кэш CDN для http:// и https:// адресов артефакта
//
// Шаги не знают о других хостах и о порядке выполнения: это забота оркестратора.
package steps
