package memscan

import (
	"golang.org/x/sys/cpu"
)

// Strategy is the fast-path kernel used by SelfScanner.
type Strategy int

const (
	// StrategyScalar compares one aligned 8-byte word at a time.
	StrategyScalar Strategy = iota
	// StrategyAVX2 compares four words per 32-byte block.
	StrategyAVX2
)

func (s Strategy) String() string {
	switch s {
	case StrategyAVX2:
		return "avx2"
	default:
		return "scalar"
	}
}

// DetectStrategy picks the widest kernel the CPU and OS support. cpu.X86.HasAVX2
// is only set when the OS saves YMM state.
func DetectStrategy() Strategy {
	if haveWideKernel && cpu.X86.HasAVX2 {
		return StrategyAVX2
	}
	return StrategyScalar
}
