package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/tarungka/ripple/internal/logger"
	"github.com/tarungka/ripple/stream"
	"github.com/twmb/franz-go/pkg/kgo"
)

// producer is the part of *kgo.Client the sink produces with.
type producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

// KafkaSink produces one record per notification, keyed by subscription
// URI. Produce is asynchronous so the scheduler never waits on the broker.
type KafkaSink struct {
	topic  string
	client producer
	logger zerolog.Logger
	now    func() time.Time
}

// NewKafkaSink creates a producer for topic.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("%w: brokers and topic", ErrMissingConfig)
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, err
	}
	return newKafkaSink(client, topic), nil
}

func newKafkaSink(client producer, topic string) *KafkaSink {
	return &KafkaSink{
		topic:  topic,
		client: client,
		logger: logger.GetLogger("kafka-sink").With().Str("topic", topic).Logger(),
		now:    time.Now,
	}
}

// Observer returns an observer producing the notifications of uri.
func (k *KafkaSink) Observer(uri string) stream.Observer {
	return writerFunc{uri: uri, now: k.now, write: k.produce}
}

func (k *KafkaSink) produce(r Record) {
	value, err := json.Marshal(r)
	if err != nil {
		k.logger.Err(err).Str("uri", r.URI).Msg("failed to encode record")
		return
	}
	record := &kgo.Record{Key: []byte(r.URI), Value: value}
	k.client.Produce(context.Background(), record, func(record *kgo.Record, err error) {
		if err != nil {
			k.logger.Err(err).Str("uri", string(record.Key)).Msg("record had a produce error")
			return
		}
		k.logger.Trace().Str("uri", string(record.Key)).Msg("produced record")
	})
}

// Close flushes buffered records and closes the client.
func (k *KafkaSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := k.client.Flush(ctx)
	k.logger.Info().Msg("disconnecting kafka sink")
	k.client.Close()
	return err
}
