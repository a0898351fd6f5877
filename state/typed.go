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

package state

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// GetAddress returns the address at key, the zero address if unset.
func (s *Store) GetAddress(ctx context.Context, key []byte) (common.Address, error) {
	var addr common.Address
	_, err := s.Get(ctx, key, &addr)
	return addr, err
}

func (s *Store) GetBool(ctx context.Context, key []byte) (bool, error) {
	var b bool
	_, err := s.Get(ctx, key, &b)
	return b, err
}

func (s *Store) GetUint64(ctx context.Context, key []byte) (uint64, error) {
	var n uint64
	_, err := s.Get(ctx, key, &n)
	return n, err
}

// InitOnce runs fn the first time a contract is set up at the address. On
// a database reopened from disk the stored state is kept as is.
func (s *Store) InitOnce(ctx context.Context, contract common.Address, fn func(ctx context.Context) error) (bool, error) {
	key := Key(contract, "initialised")
	done := false
	err := s.Atomic(ctx, func(ctx context.Context) error {
		ok, err := s.Has(ctx, key)
		if err != nil || ok {
			return err
		}
		if err := fn(ctx); err != nil {
			return err
		}
		done = true
		return s.Put(ctx, key, true)
	})
	return done, err
}
