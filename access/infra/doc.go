// Package infra implementa os repositórios do gateway sobre gorm
// (Postgres em produção, SQLite para desenvolvimento/testes) e a
// publicação de eventos de reprodução em NATS.
package infra
