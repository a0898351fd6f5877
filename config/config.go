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

package config

import (
	"bytes"
	"os"
	"path/filepath"

	"code.vegaprotocol.io/marketupdates/broker"
	"code.vegaprotocol.io/marketupdates/deploy"
	"code.vegaprotocol.io/marketupdates/logging"
	"code.vegaprotocol.io/marketupdates/metrics"
	"code.vegaprotocol.io/marketupdates/state"
	"code.vegaprotocol.io/marketupdates/subscribers"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

const configFileName = "config.toml"

// Config ties together all other application configuration types.
type Config struct {
	Logging     logging.Config     `group:"Logging" namespace:"logging"`
	State       state.Config       `group:"State" namespace:"state"`
	Broker      broker.Config      `group:"Broker" namespace:"broker"`
	Deploy      deploy.Config      `group:"Deploy" namespace:"deploy"`
	Metrics     metrics.Config     `group:"Metrics" namespace:"metrics"`
	Subscribers subscribers.Config `group:"Subscribers" namespace:"subscribers"`
}

// NewDefaultConfig returns a set of default configs for all packages, as
// specified at the per package config level.
func NewDefaultConfig() Config {
	return Config{
		Logging:     logging.NewDefaultConfig(),
		State:       state.NewDefaultConfig(),
		Broker:      broker.NewDefaultConfig(),
		Deploy:      deploy.NewDefaultConfig(),
		Metrics:     metrics.NewDefaultConfig(),
		Subscribers: subscribers.NewDefaultConfig(),
	}
}

// Path returns the path of the configuration file in the root directory.
func Path(rootPath string) string {
	return filepath.Join(rootPath, configFileName)
}

// Read loads the configuration of the root directory over the defaults.
func Read(rootPath string) (*Config, error) {
	cfg := NewDefaultConfig()
	if _, err := toml.DecodeFile(Path(rootPath), &cfg); err != nil {
		return nil, errors.Wrapf(err, "couldn't read %s", Path(rootPath))
	}
	return &cfg, nil
}

// Write saves the configuration in the root directory. An existing file is
// only replaced if overwrite is set.
func Write(rootPath string, cfg *Config, overwrite bool) error {
	path := Path(rootPath)
	if _, err := os.Stat(path); err == nil && !overwrite {
		return errors.Errorf("configuration already exists at %s", path)
	}
	if err := os.MkdirAll(rootPath, 0o700); err != nil {
		return errors.Wrapf(err, "couldn't create %s", rootPath)
	}
	buf := &bytes.Buffer{}
	if err := toml.NewEncoder(buf).Encode(cfg); err != nil {
		return errors.Wrap(err, "couldn't encode the configuration")
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}
