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
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Errors shared by every component guarding an operation behind a principal.
var (
	// ErrUnauthorized is returned when the wrong principal invokes a gated operation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidAddress is returned when the zero address is supplied where a principal is required.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrMarketAdminIsPaused is returned to the market admin while its privileges are halted.
	ErrMarketAdminIsPaused = errors.New("market admin is paused")
)

// Unauthorized wraps ErrUnauthorized with the operation and the principal
// expected to call it, e.g. "queueTransaction: call must come from the market update proposer".
func Unauthorized(operation, required string) error {
	return errors.Wrapf(ErrUnauthorized, "%s: call must come from the %s", operation, required)
}

// RequireAddress returns ErrInvalidAddress, annotated with the field name,
// if addr is the zero address.
func RequireAddress(field string, addr common.Address) error {
	if addr == (common.Address{}) {
		return errors.Wrap(ErrInvalidAddress, field)
	}
	return nil
}
