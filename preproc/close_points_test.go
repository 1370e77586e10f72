package preproc

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClosePairs(t *testing.T) {
	finder := NewClosePointFinder[int](250)
	finder.Add(0, 0, 0)
	finder.Add(100, 0, 1)
	finder.Add(300, 0, 2)
	finder.Add(0, 240, 3)
	finder.Add(-50, -50, 4)
	assert.Equal(t, 5, finder.PointCount())

	found := map[[2]int]float64{}
	for _, pair := range finder.ClosePairs() {
		require.NotEqual(t, pair.A, pair.B)
		_, dup := found[[2]int{pair.A, pair.B}]
		require.False(t, dup)
		found[[2]int{pair.A, pair.B}] = pair.C
	}

	expected := map[[2]int]float64{
		{0, 1}: 100,
		{0, 3}: 240,
		{0, 4}: 100,
		{1, 2}: 200,
		{1, 4}: 200,
	}
	assert.Len(t, found, 2*len(expected))
	for pair, dist := range expected {
		assert.InDelta(t, dist, found[pair], 1e-9)
		assert.InDelta(t, dist, found[[2]int{pair[1], pair[0]}], 1e-9)
	}
}

func TestClosePairsBruteForce(t *testing.T) {
	const N = 400
	const D = 50.0
	rng := rand.New(rand.NewSource(7))

	xs := make([]float64, N)
	ys := make([]float64, N)
	finder := NewClosePointFinder[int](D)
	for i := 0; i < N; i++ {
		xs[i] = rng.Float64()*1000 - 500
		ys[i] = rng.Float64()*1000 - 500
		finder.Add(xs[i], ys[i], i)
	}

	expected := 0
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			if i != j && math.Abs(xs[i]-xs[j])+math.Abs(ys[i]-ys[j]) < D {
				expected++
			}
		}
	}

	count := 0
	finder.ForClosePairs(func(a, b int, dist float64) {
		assert.Less(t, dist, D)
		count++
	})
	assert.Equal(t, expected, count)
}

func TestClosePairsOrder(t *testing.T) {
	build := func() []int {
		finder := NewClosePointFinder[int](10)
		for i := 0; i < 20; i++ {
			finder.Add(float64(i*3), float64(i%4), i)
		}
		order := []int{}
		finder.ForClosePairs(func(a, b int, dist float64) {
			order = append(order, a, b)
		})
		return order
	}
	first := build()
	assert.NotEmpty(t, first)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, build())
	}
}
