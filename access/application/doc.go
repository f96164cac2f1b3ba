// Package application implementa os casos de uso do gateway público de áudio:
// resolução de slug com cota (Gateway), resumo de uso (UsageService),
// compartilhamento (Sharing) e chaves de API (Keys).
//
// Depende só de access/domain; transporte e persistência ficam fora.
package application
