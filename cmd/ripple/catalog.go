package main

import (
	"fmt"
	"time"

	"github.com/tarungka/ripple/engine"
	"github.com/tarungka/ripple/operator"
	"github.com/tarungka/ripple/sinks"
	"github.com/tarungka/ripple/sources"
	"github.com/tarungka/ripple/stream"
)

const (
	heartbeatURI   = "rx://heartbeat"
	firstOrdersURI = "rx://orders/first"
	largeOrdersURI = "rx://orders/large"
	untilStopURI   = "rx://orders/until-stop"
	kafkaURI       = "rx://kafka/events"
)

// demoCatalog registers the queries the binary runs. Hub topics are fed
// through POST /topics/{topic}.
func demoCatalog(hub *sources.Hub, kafka KafkaConfig, sink sinks.Sink) (*engine.Catalog, error) {
	c := engine.NewCatalog()
	out := sink.Observer
	orders := hub.Topic("orders")

	defs := map[string]stream.Operator{
		heartbeatURI: operator.Select(operator.PeriodicTimer(0, 10*time.Second), func(v stream.Event) (stream.Event, error) {
			return map[string]any{"beat": v}, nil
		}),
		firstOrdersURI: operator.Take(orders, 10),
		largeOrdersURI: operator.Where(orders, largeOrder),
		untilStopURI: operator.StartWith(
			operator.TakeUntil(orders, hub.Topic("stop")),
			"listening",
		),
	}
	if len(kafka.Brokers) > 0 && kafka.Topic != "" {
		src, err := sources.New(sources.SourceConfig{
			Type:    "kafka",
			Topic:   kafka.Topic,
			Brokers: kafka.Brokers,
			Group:   kafka.Group,
		}, hub)
		if err != nil {
			return nil, err
		}
		defs[kafkaURI] = operator.SkipUntil(src, hub.Topic("kafka-open"))
	}

	for uri, op := range defs {
		if err := c.Register(uri, engine.Definition{Operator: op, Observer: out}); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// largeOrder matches orders with an amount above 100.
func largeOrder(v stream.Event) (bool, error) {
	order, ok := v.(map[string]any)
	if !ok {
		return false, fmt.Errorf("order is a %T, not an object", v)
	}
	amount, _ := order["amount"].(float64)
	return amount > 100, nil
}
