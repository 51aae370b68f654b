package ledger

import (
	"context"

	"github.com/mcoot/faceit-ledger/internal/model"
)

// Receiver is a receive hook for an address, invoked whenever the
// contract pays value to it. Returning an error reverts the whole
// transaction that made the payment.
//
// The context passed to Receive carries the active transaction: ledger
// calls made with it join that transaction and see its staged state.
type Receiver interface {
	Receive(ctx context.Context, from model.Address, amount model.Wei) error
}

// ReceiverFunc adapts a function to the Receiver interface
type ReceiverFunc func(ctx context.Context, from model.Address, amount model.Wei) error

func (f ReceiverFunc) Receive(ctx context.Context, from model.Address, amount model.Wei) error {
	return f(ctx, from, amount)
}

// EventSink receives events after the transaction that emitted them
// has been committed
type EventSink interface {
	Publish(event model.Event)
}

// RegisterReceiver installs the receive hook for addr, replacing any
// previous one
func (l *Ledger) RegisterReceiver(addr model.Address, r Receiver) {
	l.receiversMu.Lock()
	defer l.receiversMu.Unlock()
	l.receivers[addr] = r
}

// UnregisterReceiver removes the receive hook for addr
func (l *Ledger) UnregisterReceiver(addr model.Address) {
	l.receiversMu.Lock()
	defer l.receiversMu.Unlock()
	delete(l.receivers, addr)
}

func (l *Ledger) receiver(addr model.Address) Receiver {
	l.receiversMu.RLock()
	defer l.receiversMu.RUnlock()
	return l.receivers[addr]
}

// AddEventSink subscribes sink to committed events
func (l *Ledger) AddEventSink(sink EventSink) {
	l.receiversMu.Lock()
	defer l.receiversMu.Unlock()
	l.sinks = append(l.sinks, sink)
}

func (l *Ledger) publish(events []model.Event) {
	l.receiversMu.RLock()
	sinks := l.sinks
	l.receiversMu.RUnlock()

	for _, e := range events {
		for _, sink := range sinks {
			sink.Publish(e)
		}
	}
}
