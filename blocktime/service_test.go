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

package blocktime_test

import (
	"context"
	"testing"
	"time"

	"code.vegaprotocol.io/marketupdates/blocktime"

	"github.com/stretchr/testify/assert"
)

func TestTimeService(t *testing.T) {
	t.Run("time is truncated to the second", testTimeIsTruncated)
	t.Run("advance moves the time and notifies", testAdvanceNotifies)
}

func testTimeIsTruncated(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 750_000_000, time.UTC)
	svc := blocktime.NewService(start)
	assert.Equal(t, start.Truncate(time.Second), svc.GetTimeNow())
	assert.Equal(t, svc.GetTimeNow(), svc.GetTimeLastBatch())
}

func testAdvanceNotifies(t *testing.T) {
	start := time.Unix(1_700_000_000, 0).UTC()
	svc := blocktime.NewService(start)

	var seen []time.Time
	svc.NotifyOnTick(func(_ context.Context, now time.Time) {
		seen = append(seen, now)
	})

	now := svc.Advance(context.Background(), 2*24*time.Hour)
	assert.Equal(t, start.Add(48*time.Hour), now)
	assert.Equal(t, start, svc.GetTimeLastBatch())
	assert.Equal(t, []time.Time{now}, seen)
}
