package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/wallet-settlement-engine/pkg/contracts/events"
)

// KafkaPublisher publica eventos do motor após o commit da unidade de trabalho.
// A chave é o userID para manter a ordem por conta dentro da partição.
type KafkaPublisher struct {
	SettledWriter *kafka.Writer
	FundingWriter *kafka.Writer
}

func NewKafkaPublisher(settled, funding *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{SettledWriter: settled, FundingWriter: funding}
}

func (p *KafkaPublisher) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.SettledWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.UserID), Value: b})
}

func (p *KafkaPublisher) PublishFundingDecided(ctx context.Context, e events.FundingDecided) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.FundingWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.UserID), Value: b})
}
