// Package repo хранит журнал release в PostgreSQL.
//
// Журнал опционален: без DB_URL release выполняется без него.
package repo
