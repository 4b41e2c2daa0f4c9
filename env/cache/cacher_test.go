package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFetch returns a fetch function that counts its invocations.
func countingFetch(payload []byte, err error) (func() ([]byte, error), *int64) {
	var calls int64
	return func() ([]byte, error) {
		atomic.AddInt64(&calls, 1)
		return payload, err
	}, &calls
}

func TestNullCacherNeverCaches(t *testing.T) {
	c := NullCacher{}
	fetch, calls := countingFetch([]byte("x"), nil)

	for i := 0; i < 3; i++ {
		v, err := c.GetPut("k", fetch)
		require.NoError(t, err)
		assert.Equal(t, []byte("x"), v)
	}
	assert.Equal(t, int64(3), *calls)
	assert.False(t, c.Contains("k"))
}

func TestMemoryCacherFetchesOnce(t *testing.T) {
	c := NewMemoryCacher()
	fetch, calls := countingFetch([]byte("payload"), nil)

	for i := 0; i < 3; i++ {
		v, err := c.GetPut("k", fetch)
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), v)
	}
	assert.Equal(t, int64(1), *calls)
	assert.True(t, c.Contains("k"))
}

func TestMemoryCacherPutDoesNotReplace(t *testing.T) {
	c := NewMemoryCacher()
	c.Put("k", []byte("first"))
	c.Put("k", []byte("second"))

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("first"), v)
}

func TestMemoryCacherRemove(t *testing.T) {
	c := NewMemoryCacher()
	c.Put("k", []byte("v"))
	c.Remove("k")
	assert.False(t, c.Contains("k"))
	c.Remove("absent")
}

func TestMemoryCacherFetchErrorLeavesCacheEmpty(t *testing.T) {
	c := NewMemoryCacher()
	fetch, _ := countingFetch(nil, errors.New("boom"))

	_, err := c.GetPut("k", fetch)
	assert.Error(t, err)
	assert.False(t, c.Contains("k"))
}

func TestLRUCacherEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewLRUCacher(2)
	require.NoError(t, err)

	c.Put("a", []byte("1"))
	c.Put("b", []byte("2"))
	c.Get("a") // refresh a
	c.Put("c", []byte("3"))

	assert.True(t, c.Contains("a"))
	assert.False(t, c.Contains("b"))
	assert.True(t, c.Contains("c"))
}

func TestLRUCacherInvalidSize(t *testing.T) {
	_, err := NewLRUCacher(0)
	assert.Error(t, err)
}

func TestDiskCacherRoundTrip(t *testing.T) {
	c := NewDiskCacher(t.TempDir())
	c.Put("openml_000042_data", []byte("payload"))

	assert.True(t, c.Contains("openml_000042_data"))
	v, ok := c.Get("openml_000042_data")
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), v)
}

func TestDiskCacherSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	NewDiskCacher(dir).Put("k", []byte("persisted"))

	v, ok := NewDiskCacher(dir).Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("persisted"), v)
}

func TestDiskCacherRejectsUnsafeKeys(t *testing.T) {
	c := NewDiskCacher(t.TempDir())
	c.Put("../escape", []byte("x"))
	assert.False(t, c.Contains("../escape"))
}

func TestDiskCacherDropsCorruptedEntries(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCacher(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "k.gz"), []byte("not gzip"), 0o644))

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.False(t, c.Contains("k"))
}

func TestDiskCacherRemove(t *testing.T) {
	c := NewDiskCacher(t.TempDir())
	c.Put("k", []byte("v"))
	c.Remove("k")
	assert.False(t, c.Contains("k"))
}

func TestConcurrentCacherFetchesOnce(t *testing.T) {
	c := NewConcurrentCacher(NewMemoryCacher())
	fetch, calls := countingFetch([]byte("shared"), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetPut("k", fetch)
			assert.NoError(t, err)
			assert.Equal(t, []byte("shared"), v)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), *calls)
}

func TestConcurrentCacherDistinctKeysDoNotShare(t *testing.T) {
	c := NewConcurrentCacher(NewMemoryCacher())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("k%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetPut(key, func() ([]byte, error) { return []byte(key), nil })
			assert.NoError(t, err)
			assert.Equal(t, []byte(key), v)
		}()
	}
	wg.Wait()
}

func TestConcurrentCacherRetriesAfterFailedFetch(t *testing.T) {
	c := NewConcurrentCacher(NewMemoryCacher())

	_, err := c.GetPut("k", func() ([]byte, error) { return nil, errors.New("boom") })
	require.Error(t, err)

	// A failed fetch leaves the cache empty; the next caller fetches again.
	v, err := c.GetPut("k", func() ([]byte, error) { return []byte("ok"), nil })
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), v)
}
