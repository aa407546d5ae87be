package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tarungka/ripple/stream"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaConfig configures a Kafka source.
type KafkaConfig struct {
	Brokers []string `koanf:"brokers" json:"brokers"`
	Topic   string   `koanf:"topic" json:"topic"`
	Group   string   `koanf:"group" json:"group"`
	// Decode turns a record value into an event. It defaults to decoding a
	// JSON document into a map.
	Decode func(value []byte) (stream.Event, error) `koanf:"-" json:"-"`
}

// Validate checks that the required values are present.
func (c KafkaConfig) Validate() error {
	switch {
	case len(c.Brokers) == 0:
		return fmt.Errorf("%w: brokers", ErrMissingConfig)
	case c.Topic == "":
		return fmt.Errorf("%w: topic", ErrMissingConfig)
	case c.Group == "":
		return fmt.Errorf("%w: group", ErrMissingConfig)
	}
	return nil
}

// DecodeJSON decodes a JSON document into a map.
func DecodeJSON(value []byte) (stream.Event, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(value, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// fetcher is the part of *kgo.Client the source consumes with.
type fetcher interface {
	PollFetches(ctx context.Context) kgo.Fetches
	Close()
}

// Kafka returns a source that consumes config.Topic as a member of
// config.Group. Each subscription runs its own consumer; disposing the
// subscription closes it. Consumption resumes from the group's committed
// offsets, which is the broker's concern and not part of a checkpoint.
func Kafka(config KafkaConfig) stream.Operator {
	return &kafkaSource{
		config: config,
		connect: func() (fetcher, error) {
			return kgo.NewClient(
				kgo.SeedBrokers(config.Brokers...),
				kgo.ConsumerGroup(config.Group),
				kgo.ConsumeTopics(config.Topic),
				kgo.AllowAutoTopicCreation(),
			)
		},
	}
}

type kafkaSource struct {
	config  KafkaConfig
	connect func() (fetcher, error)
}

func (o *kafkaSource) Kind() string { return "Kafka(" + o.config.Topic + ")" }

func (o *kafkaSource) Subscribe(rt *stream.Runtime, obs stream.Observer) stream.Subscription {
	decode := o.config.Decode
	if decode == nil {
		decode = DecodeJSON
	}
	return &kafkaSubscription{
		BaseSubscription: stream.NewBaseSubscription(rt, obs),
		def:              o,
		decode:           decode,
		logger:           rt.Logger.With().Str("source", "kafka").Str("topic", o.config.Topic).Logger(),
	}
}

type kafkaSubscription struct {
	*stream.BaseSubscription
	def    *kafkaSource
	decode func([]byte) (stream.Event, error)
	logger zerolog.Logger
}

func (s *kafkaSubscription) Start() {
	if !s.Activate() {
		return
	}
	if err := s.def.config.Validate(); err != nil {
		s.Fail(err)
		return
	}

	client, err := s.def.connect()
	if err != nil {
		s.logger.Err(err).Msg("error when creating a kafka consumer")
		s.Fail(err)
		return
	}

	// the poll goroutine owns the client; closing it leaves the group,
	// which is a broker round trip the scheduler must not wait on
	ctx, cancel := context.WithCancel(context.Background())
	s.OnDispose(cancel)

	s.logger.Debug().Strs("brokers", s.def.config.Brokers).Str("group", s.def.config.Group).Msg("consuming")
	go func() {
		defer client.Close()
		s.poll(ctx, client)
	}()
}

// poll runs on its own goroutine and hands every record to the scheduler.
func (s *kafkaSubscription) poll(ctx context.Context, client fetcher) {
	var seen int
	for {
		if ctx.Err() != nil {
			return
		}
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return
		}
		fetches.EachError(func(t string, p int32, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Err(err).Str("topic", t).Int32("partition", p).Msg("fetch error")
		})

		fetches.EachRecord(func(record *kgo.Record) {
			seen++
			event, err := s.decode(record.Value)
			if err != nil {
				s.logger.Err(err).Int64("offset", record.Offset).Msg("error decoding record, skipping")
				return
			}
			s.Post(func() {
				s.Emit(event)
			})
		})
		s.logger.Trace().Int("seen", seen).Msg("polled")
	}
}
