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

package commands

import (
	"context"
	"fmt"

	"code.vegaprotocol.io/marketupdates/config/encoding"
	"code.vegaprotocol.io/marketupdates/libs/calldata"
	"code.vegaprotocol.io/marketupdates/libs/crypto"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

type EncodeCmd struct {
	Signature string `short:"s" long:"signature" required:"true" description:"Signature of the function, e.g. setSupplyKink(address,uint64)"`
	ArgsOnly  bool   `long:"args-only" description:"Leave the selector out, as queued in the timelock"`
}

var encodeCmd EncodeCmd

func Encode(ctx context.Context, parser *flags.Parser) error {
	encodeCmd = EncodeCmd{}
	_, err := parser.AddCommand("encode", "Encode call data", "Encode the arguments of a call, given as positional arguments, into call data", &encodeCmd)
	return err
}

func (opts *EncodeCmd) Execute(args []string) error {
	m, data, err := encodeArgs(opts.Signature, args)
	if err != nil {
		return err
	}
	if !opts.ArgsOnly {
		data = calldata.Join(m.Signature, data)
	}
	fmt.Println(hexutil.Encode(data))
	return nil
}

type HashCmd struct {
	Target    encoding.Address `short:"t" long:"target" required:"true" description:"Target contract of the transaction"`
	Value     string           `long:"value" default:"0" description:"Value sent with the transaction, in wei"`
	Signature string           `short:"s" long:"signature" description:"Signature of the function, the call data is used as is if empty"`
	ETA       uint64           `long:"eta" required:"true" description:"Unix time after which the transaction can be executed"`
}

var hashCmd HashCmd

func Hash(ctx context.Context, parser *flags.Parser) error {
	hashCmd = HashCmd{}
	_, err := parser.AddCommand("hash", "Hash a timelock transaction", "Compute the hash a transaction is queued under in the timelock, the arguments of the call are given as positional arguments", &hashCmd)
	return err
}

func (opts *HashCmd) Execute(args []string) error {
	value, err := uint256.FromDecimal(opts.Value)
	if err != nil {
		return errors.Wrapf(err, "invalid value %q", opts.Value)
	}

	var (
		signature = opts.Signature
		data      []byte
	)
	switch {
	case signature != "":
		var m *calldata.Method
		if m, data, err = encodeArgs(signature, args); err != nil {
			return err
		}
		signature = m.Signature
	case len(args) == 1:
		if data, err = hexutil.Decode(args[0]); err != nil {
			return errors.Wrap(err, "invalid call data")
		}
	case len(args) > 1:
		return errors.New("call data must be a single hex string when no signature is given")
	}

	h := crypto.TransactionHash(opts.Target.Get(), value, signature, data, opts.ETA)
	fmt.Println(h.Hex())
	return nil
}

func encodeArgs(signature string, args []string) (*calldata.Method, []byte, error) {
	m, err := calldata.ParseSignature(signature)
	if err != nil {
		return nil, nil, err
	}
	vals, err := m.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}
	data, err := m.EncodeArgs(vals...)
	return m, data, err
}
