// Command ovmtrace runs a single OVM-sandboxed message to completion and
// prints the resulting trace report as JSON.
//
// Usage:
//
//	ovmtrace --scenario path/to/scenario.json [flags]
//
// Flags:
//
//	--scenario   Path to a JSON scenario file (required)
//	--fork       Hardfork name (default: london)
//	--out        Output file path (default: stdout)
//	--verbosity     Log level 0-5 (default: 3)
//	--blockgaslimit Block gas limit exposed to GASLIMIT (default: 30000000)
//	--allowunlimitedcontractsize Disable the EIP-170 max contract code size check
//	--timeout       Trace timeout in seconds, 0 disables the deadline
//	--version    Print version and exit
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/ovmtrace/pkg/config"
	"github.com/eth2030/ovmtrace/pkg/log"
	"github.com/eth2030/ovmtrace/pkg/ovm"
	"github.com/eth2030/ovmtrace/pkg/state"
	"github.com/eth2030/ovmtrace/pkg/vm"
)

var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in isolation.
func run(args []string) int {
	cfg, timeoutSeconds, exit, code := parseFlags(args)
	if exit {
		return code
	}

	log.SetDefault(log.New(verbosityToLevel(cfg.Verbosity)))

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}

	report, err := runTrace(cfg, timeoutSeconds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "trace failed: %v\n", err)
		return 1
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encoding report: %v\n", err)
		return 1
	}

	if cfg.OutputPath == "" {
		fmt.Println(string(out))
		return 0
	}
	if err := os.WriteFile(cfg.OutputPath, out, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "writing report: %v\n", err)
		return 1
	}
	return 0
}

// runTrace wires the state view, fork config, and OVM executor together
// per the scenario at cfg.ScenarioPath, runs the entry message to
// completion, and flattens the result into a TraceReport.
func runTrace(cfg config.Config, timeoutSeconds uint64) (*config.TraceReport, error) {
	scenario, err := config.LoadScenario(cfg.ScenarioPath)
	if err != nil {
		return nil, err
	}

	sv := state.NewMemoryView()
	touched, err := loadPreState(sv, scenario.PreState)
	if err != nil {
		return nil, fmt.Errorf("loading pre-state: %w", err)
	}

	msg, err := buildEntryMessage(scenario.Message)
	if err != nil {
		return nil, fmt.Errorf("building entry message: %w", err)
	}
	touched[msg.Caller] = struct{}{}
	if !msg.IsCreate() {
		touched[msg.To] = struct{}{}
	}

	var observer vm.Observer = vm.NopObserver{}
	if cfg.Verbosity >= 4 {
		observer = ovm.NewLoggingObserver()
	}
	stepCounter := &ovm.StepCountingObserver{Inner: observer}

	var forkOpts []vm.ForkOption
	if cfg.AllowUnlimitedContractSize {
		forkOpts = append(forkOpts, vm.WithUnlimitedContractSize())
	}

	executor := ovm.NewExecutor(ovm.Capabilities{
		StateView:  sv,
		ForkConfig: vm.NewForkConfig(cfg.Fork, forkOpts...),
		Observer:   stepCounter,
		Block: vm.BlockContext{
			BlockNumber: new(big.Int),
			Time:        uint64(time.Now().Unix()),
			GasLimit:    cfg.GasLimit,
		},
	})

	ctx := context.Background()
	var cancel context.CancelFunc
	if timeoutSeconds > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
		defer cancel()
	}

	result := executor.RunTransaction(ctx, msg)

	return buildReport(sv, msg, result, stepCounter.Count, touched), nil
}

// loadPreState populates sv from the scenario's account map and returns
// the set of addresses it mentioned, so the report's account diffs cover
// at least every address the scenario cared about.
func loadPreState(sv *state.MemoryView, accounts map[string]config.ScenarioAccount) (map[common.Address]struct{}, error) {
	touched := make(map[common.Address]struct{}, len(accounts))
	for addrHex, acc := range accounts {
		addr, err := config.ParseAddress(addrHex)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", addrHex, err)
		}
		sv.CreateAccount(addr)
		touched[addr] = struct{}{}

		balance, err := config.ParseBalance(acc.Balance)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", addrHex, err)
		}
		if balance.Sign() != 0 {
			sv.AddBalance(addr, balance)
		}
		sv.SetNonce(addr, acc.Nonce)

		code, err := config.ParseHexBytes(acc.Code)
		if err != nil {
			return nil, fmt.Errorf("account %q code: %w", addrHex, err)
		}
		if len(code) > 0 {
			sv.SetCode(addr, code)
		}

		for keyHex, valueHex := range acc.Storage {
			key, err := config.ParseHash(keyHex)
			if err != nil {
				return nil, fmt.Errorf("account %q storage key %q: %w", addrHex, keyHex, err)
			}
			value, err := config.ParseHash(valueHex)
			if err != nil {
				return nil, fmt.Errorf("account %q storage value %q: %w", addrHex, valueHex, err)
			}
			sv.SetState(addr, key, value)
		}
	}
	return touched, nil
}

// buildEntryMessage translates a ScenarioMessage into the depth-0 vm.Message
// the executor runs.
func buildEntryMessage(m config.ScenarioMessage) (*vm.Message, error) {
	caller, err := config.ParseAddress(m.Caller)
	if err != nil {
		return nil, fmt.Errorf("caller: %w", err)
	}
	value, err := config.ParseBalance(m.Value)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	data, err := config.ParseHexBytes(m.Data)
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}

	msg := &vm.Message{
		Caller:   caller,
		Value:    value,
		GasLimit: new(big.Int).SetUint64(m.GasLimit),
		GasPrice: new(big.Int),
		Origin:   caller,
	}

	if m.Create {
		msg.Kind = vm.CallKindCreate
		msg.Code = data
		if m.Salt != "" {
			salt, err := config.ParseHash(m.Salt)
			if err != nil {
				return nil, fmt.Errorf("salt: %w", err)
			}
			msg.Kind = vm.CallKindCreate2
			msg.Salt = new(big.Int).SetBytes(salt.Bytes())
		}
		return msg, nil
	}

	to, err := config.ParseAddress(m.To)
	if err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	msg.Kind = vm.CallKindCall
	msg.To = to
	msg.CodeAddress = to
	msg.Data = data
	return msg, nil
}

// buildReport flattens a Result into a TraceReport, including the
// post-trace state of every address the scenario or entry message touched.
func buildReport(sv *state.MemoryView, msg *vm.Message, result *vm.Result, steps uint64, touched map[common.Address]struct{}) *config.TraceReport {
	report := &config.TraceReport{
		Success:   !result.Failed(),
		GasUsed:   gasUsed(msg.GasLimit, result.GasLeft),
		GasRefund: safeUint64(result.GasRefund),
		StepCount: steps,
	}
	if len(result.ReturnData) > 0 {
		report.ReturnValue = "0x" + common.Bytes2Hex(result.ReturnData)
	}
	if result.CreatedAddress != (common.Address{}) {
		report.CreatedAddress = result.CreatedAddress.Hex()
	}
	if result.ExceptionError != nil {
		report.ExceptionError = result.ExceptionError.Error()
	}

	for addr := range touched {
		report.AccountDiffs = append(report.AccountDiffs, config.AccountDiff{
			Address:  addr.Hex(),
			Balance:  sv.GetBalance(addr).String(),
			Nonce:    sv.GetNonce(addr),
			CodeHash: sv.GetCodeHash(addr).Hex(),
		})
	}
	return report
}

func gasUsed(limit, left *big.Int) uint64 {
	if limit == nil || left == nil {
		return 0
	}
	used := new(big.Int).Sub(limit, left)
	if used.Sign() < 0 {
		return 0
	}
	return used.Uint64()
}

func safeUint64(v *big.Int) uint64 {
	if v == nil || v.Sign() < 0 {
		return 0
	}
	return v.Uint64()
}

// verbosityToLevel maps the CLI's 0-5 verbosity scale onto slog's levels,
// matching the reference CLI's verbosity flag.
func verbosityToLevel(verbosity int) slog.Level {
	switch {
	case verbosity <= 1:
		return slog.LevelError
	case verbosity == 2:
		return slog.LevelWarn
	case verbosity == 3:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// parseFlags parses CLI arguments into a Config plus the timeout flag,
// which does not live on Config since it only matters to this command.
// Returns whether the caller should exit immediately, and the exit code.
func parseFlags(args []string) (cfg config.Config, timeoutSeconds uint64, exit bool, code int) {
	cfg = config.DefaultConfig()
	fs := config.NewFlagSet("ovmtrace")

	fs.StringVar(&cfg.ScenarioPath, "scenario", cfg.ScenarioPath, "path to a JSON scenario file")
	fs.StringVar(&cfg.Fork, "fork", cfg.Fork, "hardfork name")
	fs.StringVar(&cfg.OutputPath, "out", cfg.OutputPath, "output file path (default: stdout)")
	fs.IntVar(&cfg.Verbosity, "verbosity", cfg.Verbosity, "log verbosity 0-5 (0-1=error, 2=warn, 3=info, 4-5=debug)")
	fs.Uint64Var(&cfg.GasLimit, "blockgaslimit", cfg.GasLimit, "block gas limit exposed to GASLIMIT")
	fs.BoolVar(&cfg.AllowUnlimitedContractSize, "allowunlimitedcontractsize", cfg.AllowUnlimitedContractSize, "disable the EIP-170 max contract code size check")
	fs.Uint64Var(&timeoutSeconds, "timeout", 0, "trace timeout in seconds, 0 disables the deadline")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cfg, timeoutSeconds, true, 2
	}
	if *showVersion {
		fmt.Printf("ovmtrace %s (commit %s)\n", version, commit)
		return cfg, timeoutSeconds, true, 0
	}
	return cfg, timeoutSeconds, false, 0
}
