// Package guard colapsa chamadas concorrentes duplicadas antes de chegarem
// ao banco. É um fast path: a corretude do exactly-once vem da chave única do
// razão, a guarda só evita trabalho repetido sob retry agressivo.
package guard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript apaga a chave só se o token ainda for nosso
// (evita soltar o lock de outra chamada após expirar o TTL).
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis é a guarda in-flight sobre SET NX PX.
type Redis struct {
	rdb   redis.UniversalClient
	ttl   time.Duration
	token string
}

func NewRedis(rdb redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, token: uuid.NewString()}
}

func key(name string) string { return "inflight:" + name }

// Acquire tenta marcar a operação como em andamento.
// false significa que outra chamada idêntica está em voo.
func (g *Redis) Acquire(ctx context.Context, name string) (bool, error) {
	return g.rdb.SetNX(ctx, key(name), g.token, g.ttl).Result()
}

// Release libera a marca; best-effort, o TTL cobre quedas no meio.
func (g *Redis) Release(ctx context.Context, name string) error {
	return releaseScript.Run(ctx, g.rdb, []string{key(name)}, g.token).Err()
}

// Noop é usada nos testes e quando não há Redis configurado.
type Noop struct{}

func (Noop) Acquire(context.Context, string) (bool, error) { return true, nil }
func (Noop) Release(context.Context, string) error         { return nil }
