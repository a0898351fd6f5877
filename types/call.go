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

package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Call is a single action of a proposal: an ABI call against a target
// contract, optionally carrying value.
type Call struct {
	Target    common.Address
	Value     *uint256.Int
	Signature string
	Data      []byte
}

// ValueOrZero never returns nil.
func (c Call) ValueOrZero() *uint256.Int {
	if c.Value == nil {
		return uint256.NewInt(0)
	}
	return c.Value
}

func (c Call) String() string {
	return fmt.Sprintf("%s.%s value=%s data=%d bytes", c.Target.Hex(), c.Signature, c.ValueOrZero().Dec(), len(c.Data))
}

// Message is what a contract receives when it is invoked: the immediate
// caller, the called address, the value sent along and the ABI call data
// (4 bytes selector followed by the encoded arguments).
type Message struct {
	Sender common.Address
	Target common.Address
	Value  *uint256.Int
	Data   []byte
}

// HasValue returns true if the message carries a non-zero value.
func (m Message) HasValue() bool {
	return m.Value != nil && !m.Value.IsZero()
}
