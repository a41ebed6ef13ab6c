// Package transport выполняет удалённые операции на хостах.
//
// Две операции:
//   - Upload — копирование локального файла в удалённую директорию (SFTP)
//   - Run    — выполнение команды в заданной рабочей директории (SSH exec)
//
// Каждый вызов открывает собственное SSH-соединение и гарантированно
// закрывает его при выходе. Рабочая директория передаётся явно в каждый
// вызов Run и оборачивается в "cd <dir> && <command>" под настроенной оболочкой.
//
// Реализации:
//   - SSH    — реальный транспорт (golang.org/x/crypto/ssh + github.com/pkg/sftp)
//   - DryRun — только логирует операции, соединений не открывает
package transport
