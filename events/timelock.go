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

package events

import (
	"context"

	"code.vegaprotocol.io/marketupdates/types"

	"github.com/ethereum/go-ethereum/common"
)

// Transaction is sent by the timelock whenever a transaction is queued,
// executed or canceled.
type Transaction struct {
	*Base
	hash common.Hash
	call types.Call
	eta  uint64
}

func NewTransactionQueuedEvent(ctx context.Context, hash common.Hash, call types.Call, eta uint64) *Transaction {
	return newTransaction(ctx, TransactionQueuedEvent, hash, call, eta)
}

func NewTransactionExecutedEvent(ctx context.Context, hash common.Hash, call types.Call, eta uint64) *Transaction {
	return newTransaction(ctx, TransactionExecutedEvent, hash, call, eta)
}

func NewTransactionCanceledEvent(ctx context.Context, hash common.Hash, call types.Call, eta uint64) *Transaction {
	return newTransaction(ctx, TransactionCanceledEvent, hash, call, eta)
}

func newTransaction(ctx context.Context, t Type, hash common.Hash, call types.Call, eta uint64) *Transaction {
	return &Transaction{
		Base: newBase(ctx, t),
		hash: hash,
		call: call,
		eta:  eta,
	}
}

func (t Transaction) Hash() common.Hash {
	return t.hash
}

func (t Transaction) Call() types.Call {
	return t.call
}

func (t Transaction) ETA() uint64 {
	return t.eta
}
