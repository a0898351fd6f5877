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

package blocktime

import (
	"context"
	"sync"
	"time"
)

// Svc holds the time of the current block. Every temporal check of the
// contracts is made against it, never against the wall clock.
type Svc struct {
	mu               sync.RWMutex
	previousDatetime time.Time
	currentDatetime  time.Time
	listeners        []func(context.Context, time.Time)
}

func NewService(now time.Time) *Svc {
	now = now.Truncate(time.Second).UTC()
	return &Svc{
		previousDatetime: now,
		currentDatetime:  now,
	}
}

// SetTimeNow moves the block time and notifies the listeners. Block times
// have a one second resolution.
func (s *Svc) SetTimeNow(ctx context.Context, t time.Time) {
	t = t.Truncate(time.Second).UTC()

	s.mu.Lock()
	s.previousDatetime = s.currentDatetime
	s.currentDatetime = t
	listeners := make([]func(context.Context, time.Time), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, f := range listeners {
		f(ctx, t)
	}
}

// Advance moves the block time forward by d.
func (s *Svc) Advance(ctx context.Context, d time.Duration) time.Time {
	now := s.GetTimeNow().Add(d)
	s.SetTimeNow(ctx, now)
	return now
}

func (s *Svc) GetTimeNow() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentDatetime
}

func (s *Svc) GetTimeLastBatch() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.previousDatetime
}

// NotifyOnTick registers callbacks run every time the block time moves.
func (s *Svc) NotifyOnTick(f ...func(context.Context, time.Time)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, f...)
	s.mu.Unlock()
}
