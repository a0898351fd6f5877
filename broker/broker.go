// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package broker

import (
	"sync"

	"code.vegaprotocol.io/marketupdates/events"
	"code.vegaprotocol.io/marketupdates/logging"
)

// Subscriber interface allows pushing values to subscribers.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/subscriber_mock.go -package mocks code.vegaprotocol.io/marketupdates/broker Subscriber
type Subscriber interface {
	Push(val ...events.Event)
	Types() []events.Type
	SetID(id int)
	ID() int
}

// Broker fans events out to subscribers. Events are pushed synchronously, in
// the order they were sent, and get a sequence number on the way.
type Broker struct {
	log *logging.Logger

	mu    sync.Mutex
	seq   uint64
	tSubs map[events.Type]map[int]Subscriber
	subs  map[int]Subscriber
	keys  []int
}

// New creates a new broker.
func New(log *logging.Logger, config Config) *Broker {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Broker{
		log:   log,
		tSubs: map[events.Type]map[int]Subscriber{},
		subs:  map[int]Subscriber{},
		keys:  []int{},
	}
}

func (b *Broker) ReloadConf(cfg Config) {
	b.log.Info("reloading configuration")
	if b.log.GetLevel() != cfg.Level.Get() {
		b.log.Info("updating log level",
			logging.String("old", b.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		b.log.SetLevel(cfg.Level.Get())
	}
}

// Send sends an event to all subscribers.
func (b *Broker) Send(event events.Event) {
	b.SendBatch([]events.Event{event})
}

// SendBatch sends the events, in order, to all subscribers.
func (b *Broker) SendBatch(evts []events.Event) {
	if len(evts) == 0 {
		return
	}
	b.mu.Lock()
	for _, e := range evts {
		b.seq++
		e.SetSequenceID(b.seq)
	}
	b.mu.Unlock()

	for _, e := range evts {
		b.mu.Lock()
		subs := b.getSubsByType(e.Type())
		b.mu.Unlock()
		if b.log.GetLevel() == logging.DebugLevel {
			b.log.Debug("sending event",
				logging.String("type", e.Type().String()),
				logging.Uint64("sequence", e.Sequence()),
				logging.Int("subscribers", len(subs)),
			)
		}
		for _, s := range subs {
			s.Push(e)
		}
	}
}

func (b *Broker) getSubsByType(t events.Type) map[int]Subscriber {
	// the ALL subscribers are copied into every typed map, so if set, we can
	// return this map directly
	subs, ok := b.tSubs[t]
	if !ok {
		subs = b.tSubs[events.All]
	}
	cpy := make(map[int]Subscriber, len(subs))
	for k, v := range subs {
		cpy[k] = v
	}
	return cpy
}

// Subscribe registers a new subscriber, returning the key.
func (b *Broker) Subscribe(s Subscriber) int {
	b.mu.Lock()
	k := b.subscribe(s)
	b.mu.Unlock()
	s.SetID(k)
	return k
}

func (b *Broker) subscribe(s Subscriber) int {
	k := b.getKey()
	b.subs[k] = s
	types := s.Types()
	// subscribers to ALL get every event no matter what else they asked for
	isAll := false
	if len(types) == 0 {
		isAll = true
		types = []events.Type{events.All}
	} else {
		for _, t := range types {
			if t == events.All {
				types = []events.Type{events.All}
				isAll = true
				break
			}
		}
	}
	for _, t := range types {
		if _, ok := b.tSubs[t]; !ok {
			b.tSubs[t] = map[int]Subscriber{}
			if !isAll {
				for ak, as := range b.tSubs[events.All] {
					b.tSubs[t][ak] = as
				}
			}
		}
		b.tSubs[t][k] = s
	}
	if isAll {
		for t := range b.tSubs {
			if t != events.All {
				b.tSubs[t][k] = s
			}
		}
	}
	return k
}

// Unsubscribe removes subscriber from broker
// this does not change the state of the subscriber.
func (b *Broker) Unsubscribe(k int) {
	b.mu.Lock()
	b.rmSubs(k)
	b.mu.Unlock()
}

func (b *Broker) getKey() int {
	if len(b.keys) > 0 {
		k := b.keys[0]
		b.keys = b.keys[1:]
		return k
	}
	return len(b.subs) + 1 // add 1 to avoid zero value
}

func (b *Broker) rmSubs(keys ...int) {
	for _, k := range keys {
		// the keys slice must not contain duplicate values
		s, ok := b.subs[k]
		if !ok {
			continue
		}
		types := s.Types()
		for _, t := range types {
			if t == events.All {
				types = nil
				break
			}
		}
		if len(types) == 0 {
			for _, v := range b.tSubs {
				delete(v, k)
			}
		} else {
			for _, t := range types {
				delete(b.tSubs[t], k)
			}
		}
		delete(b.subs, k)
		b.keys = append(b.keys, k)
	}
}
