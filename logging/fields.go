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

package logging

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Error constructs a field that lazily stores err.Error() under the key "error".
func Error(v error) zap.Field {
	return zap.Error(v)
}

func String(key, value string) zap.Field {
	return zap.String(key, value)
}

func Strings(key string, value []string) zap.Field {
	return zap.Strings(key, value)
}

func Bool(key string, value bool) zap.Field {
	return zap.Bool(key, value)
}

func Int(key string, value int) zap.Field {
	return zap.Int(key, value)
}

func Uint64(key string, value uint64) zap.Field {
	return zap.Uint64(key, value)
}

func Duration(key string, value time.Duration) zap.Field {
	return zap.Duration(key, value)
}

func Time(key string, value time.Time) zap.Field {
	return zap.Time(key, value)
}

// Address logs an ethereum address in its checksummed form.
func Address(key string, addr common.Address) zap.Field {
	return zap.String(key, addr.Hex())
}

func Hash(key string, h common.Hash) zap.Field {
	return zap.String(key, h.Hex())
}

func ProposalID(id uint64) zap.Field {
	return zap.Uint64("proposal-id", id)
}

func TraceID(id string) zap.Field {
	return zap.String("trace-id", id)
}
