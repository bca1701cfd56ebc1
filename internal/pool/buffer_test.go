package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBufferPool(t *testing.T) {
	bp := NewBufferPool()
	require.NotNil(t, bp)
	assert.NotNil(t, bp.sniff)
	assert.NotNil(t, bp.copy)
}

func TestBufferPool_GetCopy(t *testing.T) {
	bp := NewBufferPool()

	buf := bp.GetCopy()
	require.NotNil(t, buf)
	assert.Equal(t, CopyBufferSize, len(buf), "copy buffers are full-length for io.CopyBuffer")
	assert.Equal(t, CopyBufferSize, cap(buf))

	bp.PutCopy(buf)
}

func TestBufferPool_GetSniff(t *testing.T) {
	bp := NewBufferPool()

	buf := bp.GetSniff()
	require.NotNil(t, buf)
	assert.Equal(t, SniffBufferSize, len(buf))

	// A shortened slice still returns to the pool at full length.
	bp.PutSniff(buf[:10])
	again := bp.GetSniff()
	assert.Equal(t, SniffBufferSize, len(again))
	bp.PutSniff(again)
}

func TestBufferPool_UndersizedPut(t *testing.T) {
	bp := NewBufferPool()

	// Foreign small buffers are dropped, not pooled.
	bp.PutCopy(make([]byte, 16))
	buf := bp.GetCopy()
	assert.Equal(t, CopyBufferSize, len(buf))
	bp.PutCopy(buf)
}

func TestGlobalBufferPool(t *testing.T) {
	buf := GetCopyBuffer()
	require.NotNil(t, buf)
	assert.Equal(t, CopyBufferSize, len(buf))
	PutCopyBuffer(buf)

	buf = GetSniffBuffer()
	require.NotNil(t, buf)
	assert.Equal(t, SniffBufferSize, len(buf))
	PutSniffBuffer(buf)
}

func BenchmarkBufferPool_GetPutCopy(b *testing.B) {
	bp := NewBufferPool()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf := bp.GetCopy()
			bp.PutCopy(buf)
		}
	})
}

func BenchmarkBufferAllocation_NewEachTime(b *testing.B) {
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf := make([]byte, CopyBufferSize)
			_ = buf
		}
	})
}
