// ABOUTME: Block decode engine boundary
// ABOUTME: Stateful stereo-to-surround transform consumed in whole blocks
package surround

// DefaultBlockSize is the frame count the default engine consumes per call.
const DefaultBlockSize = 512

// MinFrames is the smallest output request for which a surround engine can
// produce valid audio; playback buffers are floored to this in surround mode.
const MinFrames = 240

// Engine is a stateful block transform from interleaved stereo float frames
// to multichannel float frames in the engine's native channel order.
//
// Decode consumes exactly BlockSize() stereo frames (BlockSize()*2 floats in
// [-1, 1]) and returns BlockSize()*Channels() floats. The returned slice is
// owned by the engine and only valid until the next Decode call. Feeding
// partial blocks is a caller contract error; the Accountant guarantees it
// never happens.
type Engine interface {
	BlockSize() int
	Channels() int
	Layout() Layout
	Decode(block []float32) []float32

	// Flush resets internal filter and overlap state to silence. Called on
	// stream restarts and transport discontinuities so stale state cannot
	// bleed into the next session.
	Flush()
}
