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

// Package scenario runs market update scenarios, written in TOML, against a
// fresh in-memory deployment. It is the engine of the dry run command.
package scenario

import (
	"strings"
	"time"

	"code.vegaprotocol.io/marketupdates/config/encoding"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrUnknownTarget = errors.New("unknown target")
	ErrNoProposal    = errors.New("no proposal to refer to")
	ErrStepFailed    = errors.New("step failed")
)

const (
	ActionPropose        = "propose"
	ActionExecute        = "execute"
	ActionCancel         = "cancel"
	ActionAdvance        = "advance"
	ActionAdvanceToETA   = "advance-to-eta"
	ActionPause          = "pause"
	ActionUnpause        = "unpause"
	ActionSetMarketAdmin = "set-market-admin"
	ActionCall           = "call"
	ActionExpectState    = "expect-state"
)

// Scenario is a market and a list of steps run in order against it.
type Scenario struct {
	Name string `toml:"name"`
	// Start is the block time of the deployment.
	Start  time.Time `toml:"start"`
	Market Market    `toml:"market"`
	Steps  []Step    `toml:"step"`
}

// Market is configured by the governor before the first step.
type Market struct {
	CometProxy         encoding.Address `toml:"comet_proxy"`
	Implementation     encoding.Address `toml:"implementation"`
	BaseToken          encoding.Address `toml:"base_token"`
	Factory            encoding.Address `toml:"factory"`
	SupplyKink         uint64           `toml:"supply_kink"`
	BorrowKink         uint64           `toml:"borrow_kink"`
	TrackingIndexScale uint64           `toml:"tracking_index_scale"`
}

type Step struct {
	Action string `toml:"action"`
	// Sender is an alias or an address, each action has a default.
	Sender      string `toml:"sender"`
	Description string `toml:"description"`
	Calls       []Call `toml:"call"`
	// Proposal defaults to the last proposal created.
	Proposal uint64            `toml:"proposal"`
	Duration encoding.Duration `toml:"duration"`
	// Target is the component of pause, unpause and set-market-admin, and
	// the contract of call.
	Target  string `toml:"target"`
	Address string `toml:"address"`
	// Signature and Args are used by call.
	Signature string   `toml:"signature"`
	Args      []string `toml:"args"`
	Value     string   `toml:"value"`
	// State is the proposal state expected by expect-state.
	State string `toml:"state"`
	// ExpectError, if set, is a part of the error message the step must
	// fail with.
	ExpectError string `toml:"expect_error"`
}

// Call is one action of a proposal.
type Call struct {
	Target    string   `toml:"target"`
	Value     string   `toml:"value"`
	Signature string   `toml:"signature"`
	Args      []string `toml:"args"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	sc := &Scenario{}
	md, err := toml.DecodeFile(path, sc)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't read scenario %s", path)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, errors.Wrapf(err, "scenario %s", path)
	}
	return sc, sc.Validate()
}

// Parse reads a scenario from its TOML text.
func Parse(text string) (*Scenario, error) {
	sc := &Scenario{}
	md, err := toml.Decode(text, sc)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't parse scenario")
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	return sc, sc.Validate()
}

func checkUndecoded(md toml.MetaData) error {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return errors.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// Validate checks every step names a known action.
func (s *Scenario) Validate() error {
	for i, st := range s.Steps {
		switch st.Action {
		case ActionPropose, ActionExecute, ActionCancel, ActionAdvance, ActionAdvanceToETA,
			ActionPause, ActionUnpause, ActionSetMarketAdmin, ActionCall, ActionExpectState:
		default:
			return errors.Wrapf(ErrUnknownAction, "step %d: %q", i+1, st.Action)
		}
		if st.Action == ActionPropose && len(st.Calls) == 0 {
			return errors.Errorf("step %d: a proposal needs calls", i+1)
		}
	}
	return nil
}
