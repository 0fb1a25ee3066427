package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Scenario is the CLI-facing input: a set of pre-state accounts plus the
// entry message fields needed to build the first call or create. It has
// no analogue in the reference interpreter; it exists purely so ovmtrace
// has something to load from disk.
type Scenario struct {
	PreState map[string]ScenarioAccount `json:"preState"`
	Message  ScenarioMessage            `json:"message"`
}

// ScenarioAccount is one account's pre-state, keyed by hex address in the
// enclosing Scenario.PreState map.
type ScenarioAccount struct {
	Balance string            `json:"balance"` // decimal, defaults to "0"
	Nonce   uint64            `json:"nonce"`
	Code    string            `json:"code"` // 0x-prefixed hex, defaults to empty
	Storage map[string]string `json:"storage"` // hex key -> hex value
}

// ScenarioMessage is the entry message fields a Scenario supplies. Create
// set marks a contract creation (Data is the init code, To is ignored): a
// CREATE2 when Salt is also nonempty, a plain CREATE otherwise. Create
// unset is an ordinary CALL to To.
type ScenarioMessage struct {
	Caller   string `json:"caller"`
	To       string `json:"to,omitempty"`
	Value    string `json:"value"`
	Data     string `json:"data"`
	GasLimit uint64 `json:"gasLimit"`
	Create   bool   `json:"create,omitempty"`
	Salt     string `json:"salt,omitempty"`
}

// LoadScenario reads and parses a Scenario from a JSON file at path.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	var sc Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario file: %w", err)
	}
	return &sc, nil
}

// ParseBalance parses a decimal balance string, defaulting to zero for an
// empty string.
func ParseBalance(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal balance %q", s)
	}
	return v, nil
}

// ParseHexBytes decodes a 0x-prefixed (or bare) hex string, treating an
// empty string as a nil (not zero-length-but-allocated) byte slice.
func ParseHexBytes(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

// ParseAddress decodes a 0x-prefixed address; an empty string yields the
// zero address (the CREATE/CREATE2 convention for Scenario.Message.To).
func ParseAddress(s string) (common.Address, error) {
	if s == "" {
		return common.Address{}, nil
	}
	b, err := ParseHexBytes(s)
	if err != nil {
		return common.Address{}, err
	}
	if len(b) != common.AddressLength {
		return common.Address{}, fmt.Errorf("address %q is not %d bytes", s, common.AddressLength)
	}
	return common.BytesToAddress(b), nil
}

// ParseHash decodes a 0x-prefixed 32-byte hash, used for storage keys and
// values and for the CREATE2 salt.
func ParseHash(s string) (common.Hash, error) {
	if s == "" {
		return common.Hash{}, nil
	}
	b, err := ParseHexBytes(s)
	if err != nil {
		return common.Hash{}, err
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("value %q is not %d bytes", s, common.HashLength)
	}
	return common.BytesToHash(b), nil
}

// TraceReport is the CLI-facing output: the executor's Result flattened
// into a JSON-friendly shape, plus the account diffs a reader needs to
// see what the trace actually did.
type TraceReport struct {
	Success        bool          `json:"success"`
	GasUsed        uint64        `json:"gasUsed"`
	GasRefund      uint64        `json:"gasRefund"`
	ReturnValue    string        `json:"returnValue,omitempty"`
	CreatedAddress string        `json:"createdAddress,omitempty"`
	ExceptionError string        `json:"exceptionError,omitempty"`
	StepCount      uint64        `json:"stepCount"`
	AccountDiffs   []AccountDiff `json:"accountDiffs,omitempty"`
}

// AccountDiff reports one touched account's post-trace state.
type AccountDiff struct {
	Address  string `json:"address"`
	Balance  string `json:"balance"`
	Nonce    uint64 `json:"nonce"`
	CodeHash string `json:"codeHash"`
}
