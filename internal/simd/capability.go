// Package simd detects the bit-manipulation capabilities of the host CPU.
// Detection happens once, at engine construction; the chosen kernels are
// held as a fixed dispatch with no per-block branching.
package simd

import (
	"strings"

	"golang.org/x/sys/cpu"
)

// Tier is the widest vector capability available on the host.
type Tier uint8

const (
	TierScalar Tier = iota
	TierSSSE3
	TierAVX2
)

func (t Tier) String() string {
	switch t {
	case TierAVX2:
		return "avx2"
	case TierSSSE3:
		return "ssse3"
	default:
		return "scalar"
	}
}

// Capabilities is the fixed capability set of an engine instance.
type Capabilities struct {
	Tier Tier
	// FastQuotes reports a carry-less multiply instruction. When set, quote
	// classification selects the branchless word-wide escape-parity kernel,
	// which uses ordinary addition rather than the instruction itself.
	FastQuotes bool
	// FastPopcnt reports a hardware population-count instruction.
	FastPopcnt bool
}

// Detect queries the host CPU. Non-x86 hosts report the scalar tier.
func Detect() Capabilities {
	caps := Capabilities{Tier: TierScalar}
	switch {
	case cpu.X86.HasAVX2:
		caps.Tier = TierAVX2
	case cpu.X86.HasSSSE3:
		caps.Tier = TierSSSE3
	}
	caps.FastQuotes = cpu.X86.HasPCLMULQDQ
	caps.FastPopcnt = cpu.X86.HasPOPCNT
	return caps
}

// Scalar returns the capability set of the portable fallback path.
func Scalar() Capabilities {
	return Capabilities{Tier: TierScalar}
}

// String renders the capability report advertised by version output,
// e.g. "avx2;fast_quotes;fast_popcnt".
func (c Capabilities) String() string {
	parts := []string{c.Tier.String()}
	if c.FastQuotes {
		parts = append(parts, "fast_quotes")
	}
	if c.FastPopcnt {
		parts = append(parts, "fast_popcnt")
	}
	return strings.Join(parts, ";")
}
