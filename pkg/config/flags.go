// Package config loads the ovmtrace CLI's runtime configuration from flags.
package config

import (
	"flag"
	"fmt"
	"strconv"
)

// FlagSet wraps flag.FlagSet to add uint64 support, which the standard
// library's flag package omits.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet creates a FlagSet with ContinueOnError behavior so callers
// control error handling instead of the flag package calling os.Exit.
func NewFlagSet(name string) *FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return &FlagSet{FlagSet: fs}
}

// Uint64Var defines a uint64 flag bound to p.
func (fs *FlagSet) Uint64Var(p *uint64, name string, value uint64, usage string) {
	fs.FlagSet.Var(&uint64Value{p: p}, name, usage)
	*p = value
}

type uint64Value struct {
	p *uint64
}

func (v *uint64Value) String() string {
	if v.p == nil {
		return "0"
	}
	return strconv.FormatUint(*v.p, 10)
}

func (v *uint64Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid uint64 value %q", s)
	}
	*v.p = n
	return nil
}
