// Package domain define contratos e tipos de domínio para rate limit e concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas.
// Dois modelos de limite convivem aqui: janela fixa (WindowCounter), usada
// na rota pública de áudio, e token bucket (LimiterStore).
package domain
