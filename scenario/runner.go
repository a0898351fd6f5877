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

package scenario

import (
	"context"
	"strings"
	"time"

	"code.vegaprotocol.io/marketupdates/blocktime"
	"code.vegaprotocol.io/marketupdates/deploy"
	"code.vegaprotocol.io/marketupdates/libs/calldata"
	"code.vegaprotocol.io/marketupdates/logging"
	"code.vegaprotocol.io/marketupdates/state"
	"code.vegaprotocol.io/marketupdates/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

const namedLogger = "scenario"

var defaultStart = time.Unix(1_700_000_000, 0).UTC()

// StepResult is the outcome of one step. Err is the error the step failed
// with, expected or not.
type StepResult struct {
	Index    int
	Action   string
	Proposal uint64
	Err      error
	Time     time.Time
}

type Result struct {
	Name  string
	Steps []StepResult
}

type runner struct {
	log     *logging.Logger
	d       *deploy.Deployment
	time    *blocktime.Svc
	aliases map[string]common.Address
	last    uint64
}

// Run deploys a fresh in-memory stack from cfg and runs the scenario on it.
// Events are sent to broker. It stops at the first step whose outcome
// differs from the expected one.
func Run(ctx context.Context, log *logging.Logger, cfg deploy.Config, broker deploy.Broker, sc *Scenario) (*Result, error) {
	log = log.Named(namedLogger)

	store, err := state.New(log, state.NewDefaultConfig())
	if err != nil {
		return nil, err
	}
	defer store.Close()

	start := sc.Start
	if start.IsZero() {
		start = defaultStart
	}
	timeSvc := blocktime.NewService(start)

	d, err := deploy.New(ctx, log, cfg, store, broker, timeSvc)
	if err != nil {
		return nil, err
	}

	r := &runner{
		log:  log,
		d:    d,
		time: timeSvc,
		aliases: map[string]common.Address{
			"governor":                    cfg.Governor.Get(),
			"market-admin":                cfg.MarketAdmin.Get(),
			"proposal-pause-guardian":     cfg.ProposalPauseGuardian.Get(),
			"market-admin-pause-guardian": cfg.MarketAdminPauseGuardian.Get(),
			"permission-checker":          d.Addresses.PermissionChecker,
			"configurator":                d.Addresses.Configurator,
			"timelock":                    d.Addresses.Timelock,
			"proposer":                    d.Addresses.Proposer,
			"proxy-admin":                 d.Addresses.ProxyAdmin,
			"comet":                       sc.Market.CometProxy.Get(),
		},
	}

	if err := r.setupMarket(ctx, cfg.Governor.Get(), sc.Market); err != nil {
		return nil, errors.Wrap(err, "couldn't set the market up")
	}

	res := &Result{Name: sc.Name}
	for i, st := range sc.Steps {
		err := r.step(ctx, st)
		res.Steps = append(res.Steps, StepResult{
			Index:    i + 1,
			Action:   st.Action,
			Proposal: r.last,
			Err:      err,
			Time:     r.time.GetTimeNow(),
		})
		if err := checkOutcome(st, err); err != nil {
			log.Error("scenario step failed",
				logging.Int("step", i+1),
				logging.String("action", st.Action),
				logging.Error(err),
			)
			return res, errors.Wrapf(err, "step %d (%s)", i+1, st.Action)
		}
		log.Debug("scenario step done", logging.Int("step", i+1), logging.String("action", st.Action))
	}
	return res, nil
}

func checkOutcome(st Step, err error) error {
	switch {
	case st.ExpectError == "" && err != nil:
		return errors.Wrap(ErrStepFailed, err.Error())
	case st.ExpectError != "" && err == nil:
		return errors.Wrapf(ErrStepFailed, "expected an error containing %q", st.ExpectError)
	case st.ExpectError != "" && !strings.Contains(err.Error(), st.ExpectError):
		return errors.Wrapf(ErrStepFailed, "expected an error containing %q, got %q", st.ExpectError, err.Error())
	}
	return nil
}

func (r *runner) setupMarket(ctx context.Context, governor common.Address, m Market) error {
	comet := m.CometProxy.Get()
	if comet == (common.Address{}) {
		return nil
	}
	err := r.d.Configurator.SetConfiguration(ctx, governor, comet, types.Configuration{
		Governor:           governor,
		BaseToken:          m.BaseToken.Get(),
		SupplyKink:         m.SupplyKink,
		BorrowKink:         m.BorrowKink,
		TrackingIndexScale: m.TrackingIndexScale,
	})
	if err != nil {
		return err
	}
	if f := m.Factory.Get(); f != (common.Address{}) {
		if err := r.d.Configurator.SetFactory(ctx, governor, comet, f); err != nil {
			return err
		}
	}
	if impl := m.Implementation.Get(); impl != (common.Address{}) {
		return r.d.ProxyAdmin.TrackProxy(ctx, governor, comet, impl)
	}
	return nil
}

// resolve turns an alias or an hex address into an address.
func (r *runner) resolve(s, def string) (common.Address, error) {
	if s == "" {
		s = def
	}
	if addr, ok := r.aliases[s]; ok {
		return addr, nil
	}
	if common.IsHexAddress(s) {
		return common.HexToAddress(s), nil
	}
	return common.Address{}, errors.Wrapf(ErrUnknownTarget, "%q", s)
}

func (r *runner) proposal(st Step) (uint64, error) {
	if st.Proposal != 0 {
		return st.Proposal, nil
	}
	if r.last == 0 {
		return 0, ErrNoProposal
	}
	return r.last, nil
}

func (r *runner) step(ctx context.Context, st Step) error {
	switch st.Action {
	case ActionAdvance:
		r.time.Advance(ctx, st.Duration.Get())
		return nil
	case ActionAdvanceToETA:
		id, err := r.proposal(st)
		if err != nil {
			return err
		}
		p, err := r.d.Proposer.GetProposal(ctx, id)
		if err != nil {
			return err
		}
		r.time.SetTimeNow(ctx, p.ETATime().Add(st.Duration.Get()))
		return nil
	case ActionPropose:
		return r.propose(ctx, st)
	case ActionExecute, ActionCancel:
		def := "market-admin"
		sender, err := r.resolve(st.Sender, def)
		if err != nil {
			return err
		}
		id, err := r.proposal(st)
		if err != nil {
			return err
		}
		if st.Action == ActionExecute {
			return r.d.Proposer.Execute(ctx, sender, id)
		}
		return r.d.Proposer.Cancel(ctx, sender, id)
	case ActionExpectState:
		id, err := r.proposal(st)
		if err != nil {
			return err
		}
		s, err := r.d.Proposer.State(ctx, id)
		if err != nil {
			return err
		}
		if !strings.EqualFold(s.String(), st.State) {
			return errors.Errorf("proposal %d is %s, expected %s", id, s, st.State)
		}
		return nil
	case ActionPause, ActionUnpause, ActionSetMarketAdmin:
		return r.admin(ctx, st)
	case ActionCall:
		return r.call(ctx, st)
	}
	return errors.Wrapf(ErrUnknownAction, "%q", st.Action)
}

func (r *runner) propose(ctx context.Context, st Step) error {
	sender, err := r.resolve(st.Sender, "market-admin")
	if err != nil {
		return err
	}
	var (
		targets    = make([]common.Address, 0, len(st.Calls))
		values     = make([]*uint256.Int, 0, len(st.Calls))
		signatures = make([]string, 0, len(st.Calls))
		calldatas  = make([][]byte, 0, len(st.Calls))
	)
	for i, c := range st.Calls {
		target, err := r.resolve(c.Target, "")
		if err != nil {
			return errors.Wrapf(err, "call %d", i)
		}
		value, err := parseValue(c.Value)
		if err != nil {
			return errors.Wrapf(err, "call %d", i)
		}
		m, err := calldata.ParseSignature(c.Signature)
		if err != nil {
			return errors.Wrapf(err, "call %d", i)
		}
		data, err := r.encodeArgs(m, c.Args)
		if err != nil {
			return errors.Wrapf(err, "call %d", i)
		}
		targets = append(targets, target)
		values = append(values, value)
		signatures = append(signatures, m.Signature)
		calldatas = append(calldatas, data)
	}
	id, err := r.d.Proposer.Propose(ctx, sender, targets, values, signatures, calldatas, st.Description)
	if err != nil {
		return err
	}
	r.last = id
	return nil
}

func (r *runner) admin(ctx context.Context, st Step) error {
	def := "governor"
	if st.Action == ActionPause {
		def = "market-admin-pause-guardian"
	}
	sender, err := r.resolve(st.Sender, def)
	if err != nil {
		return err
	}

	switch st.Target {
	case "permission-checker":
		switch st.Action {
		case ActionPause:
			return r.d.Checker.PauseMarketAdmin(ctx, sender)
		case ActionUnpause:
			return r.d.Checker.UnpauseMarketAdmin(ctx, sender)
		}
		addr, err := r.resolve(st.Address, "")
		if err != nil {
			return err
		}
		return r.d.Checker.SetMarketAdmin(ctx, sender, addr)
	case "configurator":
		switch st.Action {
		case ActionPause:
			return r.d.Configurator.PauseMarketAdmin(ctx, sender)
		case ActionUnpause:
			return r.d.Configurator.UnpauseMarketAdmin(ctx, sender)
		}
		addr, err := r.resolve(st.Address, "")
		if err != nil {
			return err
		}
		return r.d.Configurator.SetMarketAdmin(ctx, sender, addr)
	case "proposer":
		if st.Action != ActionSetMarketAdmin {
			break
		}
		addr, err := r.resolve(st.Address, "")
		if err != nil {
			return err
		}
		return r.d.Proposer.SetMarketAdmin(ctx, sender, addr)
	}
	return errors.Wrapf(ErrUnknownTarget, "%s has no %s", st.Target, st.Action)
}

// call sends a message straight to a contract through the ledger.
func (r *runner) call(ctx context.Context, st Step) error {
	sender, err := r.resolve(st.Sender, "governor")
	if err != nil {
		return err
	}
	target, err := r.resolve(st.Target, "")
	if err != nil {
		return err
	}
	value, err := parseValue(st.Value)
	if err != nil {
		return err
	}
	m, err := calldata.ParseSignature(st.Signature)
	if err != nil {
		return err
	}
	data, err := r.encodeArgs(m, st.Args)
	if err != nil {
		return err
	}
	_, err = r.d.Ledger.Call(ctx, types.Message{
		Sender: sender,
		Target: target,
		Value:  value,
		Data:   calldata.Join(m.Signature, data),
	})
	return err
}

func (r *runner) encodeArgs(m *calldata.Method, args []string) ([]byte, error) {
	resolved := make([]string, 0, len(args))
	for _, a := range args {
		if addr, ok := r.aliases[a]; ok {
			a = addr.Hex()
		}
		resolved = append(resolved, a)
	}
	vals, err := m.ParseArgs(resolved)
	if err != nil {
		return nil, err
	}
	return m.EncodeArgs(vals...)
}

func parseValue(s string) (*uint256.Int, error) {
	if s == "" {
		return uint256.NewInt(0), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid value %q", s)
	}
	return v, nil
}
