package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogLookup(t *testing.T) {
	c := NewCatalog()

	ethanol, ok := c.Lookup("Ethanol")
	require.True(t, ok)
	assert.Equal(t, 702, ethanol.CID)
	assert.InDelta(t, 46.07, ethanol.MolarMass, 1e-9)
	require.NotNil(t, ethanol.Density)
	assert.InDelta(t, 0.789, *ethanol.Density, 1e-9)

	byCAS, ok := c.Lookup("64-19-7")
	require.True(t, ok)
	assert.Equal(t, "acetic acid", byCAS.CanonicalName)

	_, ok = c.Lookup("unobtainium")
	assert.False(t, ok)
}

func TestCatalogLookup_SubstringMatch(t *testing.T) {
	c := NewCatalog()

	glacial, ok := c.Lookup("glacial acetic acid (conc.)")
	require.True(t, ok)
	assert.Equal(t, 176, glacial.CID)

	para, ok := c.Lookup("p-ethylphenol")
	require.True(t, ok)
	assert.Equal(t, "4-ethylphenol", para.CanonicalName)
	assert.InDelta(t, 122.17, para.MolarMass, 1e-9)
}

func TestCatalogLookup_MethanolDoesNotMatchEthanol(t *testing.T) {
	c := NewCatalog()

	methanol, ok := c.Lookup("methanol")
	require.True(t, ok)
	assert.Equal(t, 887, methanol.CID)

	dry, ok := c.Lookup("dry methanol")
	require.True(t, ok)
	assert.Equal(t, 887, dry.CID)
}

func TestCatalogLookup_ShortQueriesRejected(t *testing.T) {
	c := NewCatalog()
	_, ok := c.Lookup("et")
	assert.False(t, ok)
	_, ok = c.Lookup(" ")
	assert.False(t, ok)
}

func TestCatalogLookup_ReturnsCopy(t *testing.T) {
	c := NewCatalog()
	first, ok := c.Lookup("ethanol")
	require.True(t, ok)
	*first.Density = 99
	first.CanonicalName = "mutated"

	second, ok := c.Lookup("ethanol")
	require.True(t, ok)
	assert.Equal(t, "ethanol", second.CanonicalName)
	assert.InDelta(t, 0.789, *second.Density, 1e-9)
}
