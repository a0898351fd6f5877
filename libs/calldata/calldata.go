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

// Package calldata encodes and decodes ABI call data from canonical function
// signatures such as "setSupplyKink(address,uint64)".
package calldata

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

const selectorCacheSize = 1024

var (
	ErrInvalidSignature = errors.New("invalid function signature")
	ErrShortCallData    = errors.New("call data shorter than a selector")
)

// selectors caches the selectors of the signatures seen by Join, every
// executed timelock transaction goes through it.
var selectors = mustCache()

func mustCache() *lru.Cache[string, [4]byte] {
	c, err := lru.New[string, [4]byte](selectorCacheSize)
	if err != nil {
		panic(err)
	}
	return c
}

// Method is a function parsed from its canonical signature.
type Method struct {
	Name      string
	Signature string
	ID        [4]byte
	Inputs    abi.Arguments
	Outputs   abi.Arguments
}

// Selector returns the first 4 bytes of the keccak256 of the signature.
func Selector(signature string) [4]byte {
	if id, ok := selectors.Get(signature); ok {
		return id
	}
	var id [4]byte
	copy(id[:], crypto.Keccak256([]byte(signature))[:4])
	selectors.Add(signature, id)
	return id
}

// ParseSignature parses a canonical signature. Tuples are not supported.
// Output types, if any, are given separately as they are not part of a
// canonical signature.
func ParseSignature(signature string, outputs ...string) (*Method, error) {
	signature = strings.TrimSpace(signature)
	open := strings.IndexByte(signature, '(')
	if open <= 0 || !strings.HasSuffix(signature, ")") {
		return nil, errors.Wrapf(ErrInvalidSignature, "%q", signature)
	}
	name := signature[:open]
	params := signature[open+1 : len(signature)-1]
	if strings.ContainsAny(params, "() ") {
		return nil, errors.Wrapf(ErrInvalidSignature, "%q", signature)
	}

	var inputTypes []string
	if params != "" {
		inputTypes = strings.Split(params, ",")
	}
	inputs, err := arguments(inputTypes)
	if err != nil {
		return nil, errors.Wrapf(err, "%q", signature)
	}
	outs, err := arguments(outputs)
	if err != nil {
		return nil, errors.Wrapf(err, "%q outputs", signature)
	}

	return &Method{
		Name:      name,
		Signature: signature,
		ID:        Selector(signature),
		Inputs:    inputs,
		Outputs:   outs,
	}, nil
}

// MustParseSignature is ParseSignature for signatures known at compile time.
func MustParseSignature(signature string, outputs ...string) *Method {
	m, err := ParseSignature(signature, outputs...)
	if err != nil {
		panic(err)
	}
	return m
}

func arguments(types []string) (abi.Arguments, error) {
	args := make(abi.Arguments, 0, len(types))
	for i, t := range types {
		if t == "" {
			return nil, errors.Wrapf(ErrInvalidSignature, "empty type at position %d", i)
		}
		ty, err := abi.NewType(t, "", nil)
		if err != nil {
			return nil, err
		}
		args = append(args, abi.Argument{Name: fmt.Sprintf("arg%d", i), Type: ty})
	}
	return args, nil
}

// EncodeArgs encodes the arguments without the selector, as proposals carry
// the signature and the arguments separately.
func (m *Method) EncodeArgs(args ...interface{}) ([]byte, error) {
	data, err := m.Inputs.Pack(args...)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't encode arguments of %s", m.Signature)
	}
	return data, nil
}

// EncodeCall encodes a full call: selector followed by the arguments.
func (m *Method) EncodeCall(args ...interface{}) ([]byte, error) {
	data, err := m.EncodeArgs(args...)
	if err != nil {
		return nil, err
	}
	return append(m.ID[:], data...), nil
}

// DecodeArgs decodes arguments, data must not contain the selector.
func (m *Method) DecodeArgs(data []byte) ([]interface{}, error) {
	vals, err := m.Inputs.UnpackValues(data)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't decode arguments of %s", m.Signature)
	}
	return vals, nil
}

func (m *Method) EncodeOutputs(vals ...interface{}) ([]byte, error) {
	if len(m.Outputs) == 0 {
		return nil, nil
	}
	return m.Outputs.Pack(vals...)
}

func (m *Method) DecodeOutputs(data []byte) ([]interface{}, error) {
	if len(m.Outputs) == 0 {
		return nil, nil
	}
	return m.Outputs.UnpackValues(data)
}

// Join builds the call data the way the timelock does before dispatching:
// with a signature the selector is prepended to data, without one data is
// taken as already carrying its selector.
func Join(signature string, data []byte) []byte {
	if signature == "" {
		return data
	}
	id := Selector(signature)
	out := make([]byte, 0, len(data)+4)
	out = append(out, id[:]...)
	return append(out, data...)
}

// Split separates the selector from the encoded arguments.
func Split(callData []byte) ([4]byte, []byte, error) {
	var id [4]byte
	if len(callData) < 4 {
		return id, nil, ErrShortCallData
	}
	copy(id[:], callData[:4])
	return id, callData[4:], nil
}
