// Package config строит профили окружений для release.
//
// Структура:
//   - environment.go — базовая конфигурация и селектор prod
//   - selectors.go   — реестр селекторов окружений
//   - profile.go     — YAML-профиль с переопределениями и дополнительными окружениями
//   - settings.go    — настройки транспорта и интеграций из переменных окружения
//
// Селектор — чистая функция: получает профиль и возвращает изменённую копию.
// Повторный вызов селектора даёт тот же результат (last write wins).
package config
