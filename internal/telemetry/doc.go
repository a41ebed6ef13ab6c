// Package telemetry содержит логирование и метрики release.
//
// Логи пишутся через log/slog в stderr, stdout остаётся для результата
// команды. Метрики собираются в prometheus.Registerer и в конце run
// отправляются в Pushgateway, если он настроен.
package telemetry
