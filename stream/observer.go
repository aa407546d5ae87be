package stream

// Observer receives the notifications of a subscription. A well-behaved
// source calls OnNext zero or more times followed by at most one of OnError
// or OnCompleted.
type Observer interface {
	OnNext(value Event)
	OnError(err error)
	OnCompleted()
}

// ObserverFuncs adapts plain functions to Observer. Nil fields ignore the
// corresponding notification.
type ObserverFuncs struct {
	Next      func(Event)
	Error     func(error)
	Completed func()
}

func (o ObserverFuncs) OnNext(value Event) {
	if o.Next != nil {
		o.Next(value)
	}
}

func (o ObserverFuncs) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}

func (o ObserverFuncs) OnCompleted() {
	if o.Completed != nil {
		o.Completed()
	}
}
