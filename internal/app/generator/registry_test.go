package generator

import (
	"fmt"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PutGetDelete(t *testing.T) {
	r := NewRegistry(10)

	g := &Generation{}
	id := r.Put(g)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, g.ID)
	assert.Equal(t, 1, r.Count())

	got, err := r.Get(id)
	require.NoError(t, err)
	assert.Same(t, g, got)

	assert.True(t, r.Delete(id))
	assert.False(t, r.Delete(id))
	assert.Equal(t, 0, r.Count())

	_, err = r.Get(id)
	assert.True(t, errors.Is(err, ErrGenerationNotFound))
}

func TestRegistry_EvictsOldest(t *testing.T) {
	r := NewRegistry(2)

	first := r.Put(&Generation{})
	second := r.Put(&Generation{})
	third := r.Put(&Generation{})

	assert.Equal(t, 2, r.Count())
	_, err := r.Get(first)
	assert.True(t, errors.Is(err, ErrGenerationNotFound))
	_, err = r.Get(second)
	assert.NoError(t, err)
	_, err = r.Get(third)
	assert.NoError(t, err)
}

func TestRegistry_DeleteThenEvict(t *testing.T) {
	r := NewRegistry(2)

	a := r.Put(&Generation{})
	b := r.Put(&Generation{})
	require.True(t, r.Delete(a))
	c := r.Put(&Generation{})

	assert.Equal(t, 2, r.Count())
	_, err := r.Get(b)
	assert.NoError(t, err, "deleted entries free their slot")
	_, err = r.Get(c)
	assert.NoError(t, err)
}

func TestRegistry_MinimumSize(t *testing.T) {
	r := NewRegistry(0)
	r.Put(&Generation{})
	r.Put(&Generation{})
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry(50)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := r.Put(&Generation{Rejected: i})
			_, _ = r.Get(id)
			_ = r.Count()
			if i%2 == 0 {
				r.Delete(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, r.Count(), fmt.Sprintf("count=%d", r.Count()))
}
