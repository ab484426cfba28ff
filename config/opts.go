package config

import "runtime"

type CompressionKind int

const (
	CompressionNone CompressionKind = iota
	CompressionZstd
)

// CheckpointOptions controls how a dataset is spilled to a single stream.
type CheckpointOptions struct {
	Compression CompressionKind

	// Concurrency bounds how many partitions are encoded in parallel.
	// Frames are still written out in ascending partition index order.
	Concurrency int
}

func DefaultCheckpointOptions() CheckpointOptions {
	return CheckpointOptions{
		Compression: CompressionZstd,
		Concurrency: runtime.GOMAXPROCS(0),
	}
}
