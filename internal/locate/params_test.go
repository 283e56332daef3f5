package locate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLeavesDefaultsAlone(t *testing.T) {
	p := DefaultParams()
	p.Validate()
	assert.Equal(t, DefaultParams(), p)
}

func TestValidateRepairsZeroValue(t *testing.T) {
	var p Params
	p.Validate()
	assert.Equal(t, DefaultParams(), p)
}

func TestValidateClampsBrokenValues(t *testing.T) {
	p := DefaultParams()
	p.RatioTest = 1.4
	p.MinInlierRatio = -0.2
	p.MaxCorrespondences = 3 // below MinCorrespondences
	p.MaxScale = 0.2         // below MinScale
	p.CannyHigh = 10         // below CannyLow
	p.Validate()

	def := DefaultParams()
	assert.Equal(t, def.RatioTest, p.RatioTest)
	assert.Equal(t, def.MinInlierRatio, p.MinInlierRatio)
	assert.Equal(t, def.MaxCorrespondences, p.MaxCorrespondences)
	assert.Equal(t, p.MinScale+1.0, p.MaxScale)
	assert.Equal(t, p.CannyLow*3, p.CannyHigh)
}

func TestValidateRestoresMissingWeights(t *testing.T) {
	p := DefaultParams()
	p.ColorWeight = 0
	p.EdgeWeight = 0
	p.ThresholdWeight = 0
	p.Validate()

	def := DefaultParams()
	assert.Equal(t, def.ColorWeight, p.ColorWeight)
	assert.Equal(t, def.EdgeWeight, p.EdgeWeight)
	assert.Equal(t, def.ThresholdWeight, p.ThresholdWeight)
}
