// Package pool provides memory management optimizations.
// This includes buffer pooling to reduce allocations on the hashing
// and upload hot paths, where every candidate file is streamed through
// a fixed-size buffer.
package pool
