// Package mq публикует события release в RabbitMQ.
//
// Структура:
//   - connection.go — соединение и канал в режиме publisher confirms
//   - topology.go   — объявление exchange и очереди аудита
//   - publisher.go  — публикация событий release
//
// Типы сообщений:
//   - release.started  — release начат
//   - release.step     — шаг завершён на хосте
//   - release.finished — release завершён (SUCCEEDED/FAILED)
//
// Exchanges:
//   - deployer.releases (topic) — все события release
package mq
