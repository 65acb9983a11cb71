package device

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseRunsNewestFirst(t *testing.T) {
	var order []string
	var r Releaser
	r.Add(func() { order = append(order, "pool") })
	r.Add(func() { order = append(order, "buffer") })
	r.Add(func() { order = append(order, "memory") })

	r.Release()
	assert.Equal(t, []string{"memory", "buffer", "pool"}, order)

	r.Release()
	assert.Len(t, order, 3)
}

func buildThree(failAt int, released *[]int) (*Releaser, error) {
	var scope Releaser
	defer scope.Release()

	for i := 0; i < 3; i++ {
		if i == failAt {
			return nil, errors.Newf("create object %d", i)
		}
		i := i
		scope.Add(func() { *released = append(*released, i) })
	}

	return scope.Take(), nil
}

func TestFailedConstructionReleasesPartialWork(t *testing.T) {
	var released []int
	_, err := buildThree(2, &released)
	require.Error(t, err)
	assert.Equal(t, []int{1, 0}, released)
}

func TestTakeTransfersOwnership(t *testing.T) {
	var released []int
	owned, err := buildThree(-1, &released)
	require.NoError(t, err)
	assert.Empty(t, released)
	assert.Len(t, owned.funcs, 3)

	owned.Release()
	assert.Equal(t, []int{2, 1, 0}, released)
}
