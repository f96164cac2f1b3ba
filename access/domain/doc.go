// Package domain define as entidades do gateway público de áudio (Account,
// Asset, APIKey), os erros de negócio e os contratos de repositório/eventos.
//
// Não depende de gin, gorm ou nats.
package domain
