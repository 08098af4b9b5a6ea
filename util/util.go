package util

import (
	"strings"
)

// Debug is the verbosity threshold for DPrintf; messages with a higher level
// are dropped.
var Debug uint64 = 1

func DPrintf(level uint64, format string, a ...interface{}) {
	if level <= Debug {
		format = strings.TrimSuffix(format, "\n")
		if level == 0 {
			Logger.Infof(format, a...)
		} else {
			Logger.Debugf(format, a...)
		}
	}
}

func RoundUp(n uint64, sz uint64) uint64 {
	return (n + sz - 1) / sz
}

func Min(n uint64, m uint64) uint64 {
	if n < m {
		return n
	} else {
		return m
	}
}

func Max(n uint64, m uint64) uint64 {
	if n > m {
		return n
	} else {
		return m
	}
}

// SumOverflows reports whether a + b does not fit in a uint64.
func SumOverflows(a uint64, b uint64) bool {
	return a+b < a
}
