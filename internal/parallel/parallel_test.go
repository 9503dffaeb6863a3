package parallel

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestFor_Sequential(t *testing.T) {
	cfg := Sequential()

	var order []int
	For(5, func(i int) {
		order = append(order, i)
	}, cfg)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestFor_SmallChunk(t *testing.T) {
	// Small work units fall back to sequential.
	cfg := DefaultConfig()

	var counter int64
	n := cfg.MinChunkSize - 1

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestBatchConfigCoversEveryItem(t *testing.T) {
	cfg := BatchConfig()
	cfg.Enabled = true
	cfg.NumWorkers = 3

	seen := make([]int32, 7)
	For(len(seen), func(i int) {
		atomic.AddInt32(&seen[i], 1)
	}, cfg)

	for i, v := range seen {
		assert.Equal(t, int32(1), v, "index %d", i)
	}
}

func TestForErrReportsLowestIndex(t *testing.T) {
	cfg := BatchConfig()
	cfg.Enabled = true
	cfg.NumWorkers = 4

	var ran int64
	err := ForErr(8, func(i int) error {
		atomic.AddInt64(&ran, 1)
		if i == 2 || i == 6 {
			return fmt.Errorf("item %d", i)
		}
		return nil
	}, cfg)

	require.Error(t, err)
	assert.Equal(t, "item 2", err.Error())
	assert.Equal(t, int64(8), ran)
}

func TestForErrNil(t *testing.T) {
	errStop := errors.New("stop")
	assert.NoError(t, ForErr(3, func(_ int) error { return nil }, Sequential()))
	assert.ErrorIs(t, ForErr(3, func(i int) error {
		if i == 1 {
			return errStop
		}
		return nil
	}, Sequential()), errStop)
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfgSeq := cfg
		cfgSeq.Enabled = false
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfgSeq)
		}
	})
}
