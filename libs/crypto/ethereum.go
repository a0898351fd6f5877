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

package crypto

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// EthereumChecksumAddress is a simple utility function
// to ensure all ethereum addresses are checksumed
// this expects a hex encoded string.
func EthereumChecksumAddress(s string) string {
	// as per docs the Hex method return EIP-55 compliant hex strings
	return common.HexToAddress(s).Hex()
}

// EthereumIsValidAddress returns whether the given string is a valid ethereum address.
func EthereumIsValidAddress(s string) bool {
	return common.IsHexAddress(s)
}

var txHashArgs = abi.Arguments{
	{Type: mustType("address")},
	{Type: mustType("uint256")},
	{Type: mustType("string")},
	{Type: mustType("bytes")},
	{Type: mustType("uint256")},
}

func mustType(t string) abi.Type {
	ty, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return ty
}

// TransactionHash identifies a queued timelock transaction:
// keccak256(abi.encode(target, value, signature, data, eta)).
func TransactionHash(target common.Address, value *uint256.Int, signature string, data []byte, eta uint64) common.Hash {
	v := new(big.Int)
	if value != nil {
		v = value.ToBig()
	}
	if data == nil {
		data = []byte{}
	}
	packed, err := txHashArgs.Pack(target, v, signature, data, new(big.Int).SetUint64(eta))
	if err != nil {
		// all the inputs are statically typed, this can't fail
		panic(err)
	}
	return crypto.Keccak256Hash(packed)
}

// ContractAddress derives the address of a contract deployed by deployer
// with the given nonce.
func ContractAddress(deployer common.Address, nonce uint64) common.Address {
	return crypto.CreateAddress(deployer, nonce)
}
