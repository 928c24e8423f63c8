package offers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisResolver resolve ofertas publicadas pelo backoffice no Redis.
type RedisResolver struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisResolver(c *redis.Client, ttl time.Duration) *RedisResolver {
	return &RedisResolver{Client: c, TTL: ttl}
}

func key(offerID string) string { return "offer:" + offerID }

// Resolve retorna a oferta se existir e for elegível para o depósito;
// nil (sem erro) quando desconhecida, expirada ou abaixo do mínimo.
func (r *RedisResolver) Resolve(ctx context.Context, offerID string, depositCents int64) (*Offer, error) {
	raw, err := r.Client.Get(ctx, key(offerID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var o Offer
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, err
	}
	if !o.ValidFor(depositCents, time.Now().UTC()) {
		return nil, nil
	}
	return &o, nil
}

// Put publica/atualiza uma oferta (usado pelo backoffice e por seeds locais).
func (r *RedisResolver) Put(ctx context.Context, o Offer) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key(o.ID), b, r.TTL).Err()
}
