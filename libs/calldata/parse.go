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
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

var ErrInvalidArgument = errors.New("invalid argument")

// ParseArgs converts textual arguments, as found in scenario files or on the
// command line, to the Go values the method inputs encode. Integers are
// decimal or 0x prefixed hexadecimal, bytes are 0x prefixed hexadecimal.
func (m *Method) ParseArgs(args []string) ([]interface{}, error) {
	if len(args) != len(m.Inputs) {
		return nil, errors.Wrapf(ErrInvalidArgument, "%s expects %d arguments, got %d", m.Signature, len(m.Inputs), len(args))
	}
	vals := make([]interface{}, 0, len(args))
	for i, in := range m.Inputs {
		v, err := parseArg(in.Type, strings.TrimSpace(args[i]))
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d of %s", i, m.Signature)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func parseArg(t abi.Type, s string) (interface{}, error) {
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, errors.Wrapf(ErrInvalidArgument, "%q is not an address", s)
		}
		return common.HexToAddress(s), nil
	case abi.UintTy, abi.IntTy:
		return parseInt(t, s)
	case abi.BoolTy:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidArgument, "%q is not a bool", s)
		}
		return b, nil
	case abi.StringTy:
		return s, nil
	case abi.BytesTy:
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidArgument, "%q: %v", s, err)
		}
		return b, nil
	case abi.FixedBytesTy:
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidArgument, "%q: %v", s, err)
		}
		if len(b) != t.Size {
			return nil, errors.Wrapf(ErrInvalidArgument, "%q is not %d bytes long", s, t.Size)
		}
		v := reflect.New(t.GetType()).Elem()
		reflect.Copy(v, reflect.ValueOf(b))
		return v.Interface(), nil
	default:
		return nil, errors.Wrapf(ErrInvalidArgument, "unsupported type %s", t.String())
	}
}

func parseInt(t abi.Type, s string) (interface{}, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidArgument, "%q is not an integer", s)
	}
	if t.T == abi.UintTy {
		if v.Sign() < 0 || v.BitLen() > t.Size {
			return nil, errors.Wrapf(ErrInvalidArgument, "%s out of range for %s", s, t.String())
		}
	} else if v.BitLen() > t.Size-1 {
		return nil, errors.Wrapf(ErrInvalidArgument, "%s out of range for %s", s, t.String())
	}

	switch t.GetType().Kind() {
	case reflect.Uint8:
		return uint8(v.Uint64()), nil
	case reflect.Uint16:
		return uint16(v.Uint64()), nil
	case reflect.Uint32:
		return uint32(v.Uint64()), nil
	case reflect.Uint64:
		return v.Uint64(), nil
	case reflect.Int8:
		return int8(v.Int64()), nil
	case reflect.Int16:
		return int16(v.Int64()), nil
	case reflect.Int32:
		return int32(v.Int64()), nil
	case reflect.Int64:
		return v.Int64(), nil
	default:
		return v, nil
	}
}
