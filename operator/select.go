package operator

import (
	"github.com/tarungka/ripple/stream"
)

// MapFunction maps an event to another event.
type MapFunction func(event stream.Event) (stream.Event, error)

// Select applies mapFn to each event in the stream. A returned error, or a
// panic, terminates the subscription with OnError.
func Select(source stream.Operator, mapFn MapFunction) stream.Operator {
	return &selectOperator{source: source, mapFn: mapFn}
}

type selectOperator struct {
	source stream.Operator
	mapFn  MapFunction
}

func (o *selectOperator) Kind() string { return "Select" }

func (o *selectOperator) Subscribe(rt *stream.Runtime, obs stream.Observer) stream.Subscription {
	s := stream.NewBaseSubscription(rt, obs)
	s.AddInput(o.source.Subscribe(rt, stream.ObserverFuncs{
		Next: func(v stream.Event) {
			var out stream.Event
			err := stream.Safely(func() (err error) {
				out, err = o.mapFn(v)
				return err
			})
			if err != nil {
				s.Fail(err)
				return
			}
			s.Emit(out)
		},
		Error:     s.Fail,
		Completed: s.Complete,
	}))
	return s
}

// Where forwards the events for which predicate holds.
func Where(source stream.Operator, predicate Predicate) stream.Operator {
	return &where{source: source, predicate: predicate}
}

type where struct {
	source    stream.Operator
	predicate Predicate
}

func (o *where) Kind() string { return "Where" }

func (o *where) Subscribe(rt *stream.Runtime, obs stream.Observer) stream.Subscription {
	s := stream.NewBaseSubscription(rt, obs)
	s.AddInput(o.source.Subscribe(rt, stream.ObserverFuncs{
		Next: func(v stream.Event) {
			var ok bool
			err := stream.Safely(func() (err error) {
				ok, err = o.predicate(v)
				return err
			})
			if err != nil {
				s.Fail(err)
				return
			}
			if ok {
				s.Emit(v)
			}
		},
		Error:     s.Fail,
		Completed: s.Complete,
	}))
	return s
}
