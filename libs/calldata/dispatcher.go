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

package calldata

import (
	"context"
	"encoding/hex"
	"math/big"
	"sort"

	"code.vegaprotocol.io/marketupdates/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	ErrUnknownSelector = errors.New("unknown function selector")
	ErrArgumentType    = errors.New("unexpected argument type")
)

// Handler implements one method of a contract. args are the decoded inputs,
// the returned values are encoded with the method outputs.
type Handler func(ctx context.Context, msg types.Message, args Args) ([]interface{}, error)

type route struct {
	method  *Method
	handler Handler
}

// Dispatcher routes call data to handlers by selector.
type Dispatcher struct {
	routes map[[4]byte]route
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		routes: map[[4]byte]route{},
	}
}

// Handle registers a handler for the signature. It panics on a malformed
// signature or a selector clash, both are programming errors.
func (d *Dispatcher) Handle(signature string, h Handler, outputs ...string) {
	m := MustParseSignature(signature, outputs...)
	if r, ok := d.routes[m.ID]; ok {
		panic("selector clash between " + r.method.Signature + " and " + signature)
	}
	d.routes[m.ID] = route{method: m, handler: h}
}

// Dispatch decodes the call data of the message and runs the matching handler.
func (d *Dispatcher) Dispatch(ctx context.Context, msg types.Message) ([]byte, error) {
	id, data, err := Split(msg.Data)
	if err != nil {
		return nil, err
	}
	r, ok := d.routes[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSelector, "0x%s", hex.EncodeToString(id[:]))
	}
	args, err := r.method.DecodeArgs(data)
	if err != nil {
		return nil, err
	}
	out, err := r.handler(ctx, msg, Args(args))
	if err != nil {
		return nil, err
	}
	return r.method.EncodeOutputs(out...)
}

// Signatures lists every registered signature, sorted.
func (d *Dispatcher) Signatures() []string {
	sigs := make([]string, 0, len(d.routes))
	for _, r := range d.routes {
		sigs = append(sigs, r.method.Signature)
	}
	sort.Strings(sigs)
	return sigs
}

// Args are decoded ABI values with typed accessors.
type Args []interface{}

func (a Args) at(i int) (interface{}, error) {
	if i < 0 || i >= len(a) {
		return nil, errors.Wrapf(ErrArgumentType, "no argument at position %d", i)
	}
	return a[i], nil
}

func (a Args) Address(i int) (common.Address, error) {
	v, err := a.at(i)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := v.(common.Address)
	if !ok {
		return common.Address{}, errors.Wrapf(ErrArgumentType, "argument %d is %T, not an address", i, v)
	}
	return addr, nil
}

func (a Args) Uint64(i int) (uint64, error) {
	v, err := a.at(i)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case uint64:
		return n, nil
	case uint32:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case *big.Int:
		if !n.IsUint64() {
			return 0, errors.Wrapf(ErrArgumentType, "argument %d overflows uint64", i)
		}
		return n.Uint64(), nil
	}
	return 0, errors.Wrapf(ErrArgumentType, "argument %d is %T, not an unsigned integer", i, v)
}

func (a Args) Big(i int) (*big.Int, error) {
	v, err := a.at(i)
	if err != nil {
		return nil, err
	}
	switch n := v.(type) {
	case *big.Int:
		return new(big.Int).Set(n), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	}
	return nil, errors.Wrapf(ErrArgumentType, "argument %d is %T, not an integer", i, v)
}

func (a Args) Bytes(i int) ([]byte, error) {
	v, err := a.at(i)
	if err != nil {
		return nil, err
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, errors.Wrapf(ErrArgumentType, "argument %d is %T, not bytes", i, v)
	}
	return b, nil
}
