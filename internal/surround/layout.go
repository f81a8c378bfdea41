// ABOUTME: Channel layouts and decoder-to-canonical remap tables
// ABOUTME: Declarative permutations replacing per-backend index arithmetic
package surround

// Layout identifies a target speaker layout.
type Layout int

const (
	Layout51 Layout = iota
	Layout71
	LayoutPositional
)

// Canonical 5.1 channel indices. Every consumer of decoded audio sees this
// order; only the decoder's native order differs.
const (
	ChanFrontLeft = iota
	ChanFrontRight
	ChanFrontCenter
	ChanLFE
	ChanRearLeft
	ChanRearRight
)

// String returns a human readable layout name.
func (l Layout) String() string {
	switch l {
	case Layout51:
		return "5.1"
	case Layout71:
		return "7.1"
	case LayoutPositional:
		return "positional"
	}
	return "unknown"
}

// Channels returns the channel count of the layout.
func (l Layout) Channels() int {
	if l == Layout71 {
		return 8
	}
	return 6
}

// remapTables maps each layout to a permutation: canonical channel i is read
// from decoder-native channel remapTables[l][i].
//
// The decoder emits FL FC FR RL RR LFE; canonical order is FL FR FC LFE RL RR.
// The positional table is identical to 5.1 on purpose: the per-channel
// positional path inherited a remap that wrote every channel through the same
// index, which looks like a defect, so it follows the verified 5.1 mapping
// until measured independently.
var remapTables = map[Layout][]int{
	Layout51:         {0, 2, 1, 5, 3, 4},
	Layout71:         {0, 2, 1, 7, 3, 4, 5, 6},
	LayoutPositional: {0, 2, 1, 5, 3, 4},
}

// Remap returns the decoder-native source index for a canonical channel.
func (l Layout) Remap() []int {
	return remapTables[l]
}
