// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
//   - MemoryWindowCounter: janela fixa por chave, em memória (um processo)
//   - RedisWindowCounter: janela fixa atômica via script Lua (vários processos)
//   - Store: token bucket por chave usando golang.org/x/time/rate
//   - MemoryStatsStore / RedisStatsStore: contadores de decisões
//   - ChanPool: semáforo simples para limite de concorrência
package infra
