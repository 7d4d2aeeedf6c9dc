package mysterybox

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestSamplerTestSuite(t *testing.T) {
	suite.Run(t, new(SamplerTestSuite))
}

type SamplerTestSuite struct {
	suite.Suite
}

func (s *SamplerTestSuite) TestDistribution() {
	sampler := NewSampler().WithRand(rand.New(rand.NewSource(42)))
	weights := map[string]int64{"common": 80, "rare": 20}

	counts := make(map[string]int)
	draws := 10000
	for i := 0; i < draws; i++ {
		rarity, err := sampler.Sample(weights)
		require.NoError(s.T(), err)
		counts[rarity] += 1
	}

	require.Equal(s.T(), draws, counts["common"]+counts["rare"])

	// 80/20 within a generous tolerance
	require.InDelta(s.T(), 0.8, float64(counts["common"])/float64(draws), 0.03)
	require.InDelta(s.T(), 0.2, float64(counts["rare"])/float64(draws), 0.03)
}

func (s *SamplerTestSuite) TestDeterministicForFixedSeed() {
	weights := map[string]int64{"common": 50, "rare": 30, "epic": 20}

	first := NewSampler().WithRand(rand.New(rand.NewSource(7)))
	second := NewSampler().WithRand(rand.New(rand.NewSource(7)))

	for i := 0; i < 100; i++ {
		a, err := first.Sample(weights)
		require.NoError(s.T(), err)
		b, err := second.Sample(weights)
		require.NoError(s.T(), err)
		require.Equal(s.T(), a, b)
	}
}

func (s *SamplerTestSuite) TestSingleLabel() {
	sampler := NewSampler()

	rarity, err := sampler.Sample(map[string]int64{"legendary": 1})
	require.NoError(s.T(), err)
	require.Equal(s.T(), "legendary", rarity)
}

func (s *SamplerTestSuite) TestZeroWeightNeverDrawn() {
	sampler := NewSampler().WithRand(rand.New(rand.NewSource(1)))
	weights := map[string]int64{"common": 10, "rare": 0}

	for i := 0; i < 1000; i++ {
		rarity, err := sampler.Sample(weights)
		require.NoError(s.T(), err)
		require.Equal(s.T(), "common", rarity)
	}
}

func (s *SamplerTestSuite) TestNoPositiveWeights() {
	sampler := NewSampler()

	_, err := sampler.Sample(map[string]int64{})
	require.ErrorIs(s.T(), err, ErrNoPositiveWeights)

	_, err = sampler.Sample(map[string]int64{"common": 0})
	require.ErrorIs(s.T(), err, ErrNoPositiveWeights)

	_, err = sampler.Sample(map[string]int64{"common": -5})
	require.ErrorIs(s.T(), err, ErrNoPositiveWeights)
}
