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
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

// Key builds the storage key of a field of a contract: the contract
// address, the field name, then the optional sub keys (map keys).
func Key(contract common.Address, field string, sub ...[]byte) []byte {
	n := common.AddressLength + 1 + len(field)
	for _, s := range sub {
		n += 1 + len(s)
	}
	key := make([]byte, 0, n)
	key = append(key, contract.Bytes()...)
	key = append(key, '/')
	key = append(key, field...)
	for _, s := range sub {
		key = append(key, '/')
		key = append(key, s...)
	}
	return key
}

// Uint64Key encodes a numeric map key so keys sort in numeric order.
func Uint64Key(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}
