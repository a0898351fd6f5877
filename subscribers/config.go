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

package subscribers

import (
	"code.vegaprotocol.io/marketupdates/config/encoding"
	"code.vegaprotocol.io/marketupdates/logging"
)

const namedLogger = "subscribers"

// Config represents the configuration of the event subscribers.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	// EventLogger logs every event of the bus.
	EventLogger encoding.Bool `long:"event-logger" description:"log every event"`
	// Metrics feeds the prometheus instruments from the bus.
	Metrics encoding.Bool `long:"metrics" description:"update the metrics from the events"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:       encoding.LogLevel{Level: logging.InfoLevel},
		EventLogger: true,
		Metrics:     true,
	}
}
