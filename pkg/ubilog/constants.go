// Package ubilog holds the protocol-visible constants and core data types
// shared by every other package in the node: Hash, Slice, Body, Block.
package ubilog

import "time"

// Protocol-visible constants. These must agree across every peer on the
// network; changing any of them forks the chain.
const (
	// BodySize is the maximum number of bytes a serialized block body may
	// occupy.
	BodySize = 8 * 1024

	// BlocksPerPeriod is the number of blocks between difficulty
	// retargets.
	BlocksPerPeriod = 2016

	// TimePerBlock is the target time between blocks.
	TimePerBlock = 30 * time.Second

	// TimePerPeriod is the target wall-clock duration of one retarget
	// period: BlocksPerPeriod * TimePerBlock.
	TimePerPeriod = BlocksPerPeriod * TimePerBlock

	// DelayTolerance is how far into the future a block's timestamp may
	// be before it is dropped by the time gate.
	DelayTolerance = 2 * time.Second

	// InitialDifficulty is the difficulty assigned to genesis's children
	// before the first retarget.
	InitialDifficulty = 1 << 20

	// DefaultPort is the UDP port a node listens on absent a --port flag.
	DefaultPort = 7731

	// MaxAttemptsPerSlice bounds how many nonces the miner draws per
	// batch before yielding back to the scheduler.
	MaxAttemptsPerSlice = 1 << 16
)
