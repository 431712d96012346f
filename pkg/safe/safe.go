package safe

import (
	"fmt"
	"math"
)

// SafeAdd adds two int64 values. Panics on overflow.
// Money arithmetic must never wrap silently.
func SafeAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		panic(fmt.Sprintf("SAFE_ADD_OVERFLOW: %d + %d", a, b))
	}
	if b < 0 && a < math.MinInt64-b {
		panic(fmt.Sprintf("SAFE_ADD_UNDERFLOW: %d + %d", a, b))
	}
	return a + b
}

// SafeSub subtracts b from a. Panics on overflow.
func SafeSub(a, b int64) int64 {
	if b < 0 && a > math.MaxInt64+b {
		panic(fmt.Sprintf("SAFE_SUB_OVERFLOW: %d - %d", a, b))
	}
	if b > 0 && a < math.MinInt64+b {
		panic(fmt.Sprintf("SAFE_SUB_UNDERFLOW: %d - %d", a, b))
	}
	return a - b
}

// SafeMul multiplies two int64 values. Panics on overflow.
func SafeMul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	result := a * b
	if result/b != a {
		panic(fmt.Sprintf("SAFE_MUL_OVERFLOW: %d * %d", a, b))
	}
	return result
}

// ClampMax returns v capped at ceiling, and whether the cap was applied.
// Used at the remote data boundary to contain corrupt upstream values.
func ClampMax(v, ceiling int64) (int64, bool) {
	if v > ceiling {
		return ceiling, true
	}
	return v, false
}
