package reaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestNormalizeAmount(t *testing.T) {
	ethanolMW := f(46.07)
	ethanolDensity := f(0.789)

	tests := []struct {
		name      string
		quantity  *float64
		unit      string
		molarMass *float64
		density   *float64
		wantMass  *float64
		wantMoles *float64
	}{
		{
			name:     "grams with molar mass",
			quantity: f(4.607), unit: "g", molarMass: ethanolMW,
			wantMass: f(4.607), wantMoles: f(100),
		},
		{
			name:     "gramm spelling accepted",
			quantity: f(46.07), unit: "Gramm", molarMass: ethanolMW,
			wantMass: f(46.07), wantMoles: f(1000),
		},
		{
			name:     "milligrams scale down",
			quantity: f(4607), unit: "mg", molarMass: ethanolMW,
			wantMass: f(4.607), wantMoles: f(100),
		},
		{
			name:     "millimoles to mass",
			quantity: f(100), unit: "mmol", molarMass: ethanolMW,
			wantMass: f(4.607), wantMoles: f(100),
		},
		{
			name:     "moles scale to millimoles",
			quantity: f(0.1), unit: "mol", molarMass: ethanolMW,
			wantMass: f(4.607), wantMoles: f(100),
		},
		{
			name:     "volume with density",
			quantity: f(10), unit: "mL", molarMass: ethanolMW, density: ethanolDensity,
			wantMass: f(7.89), wantMoles: f(7.89 / 46.07 * 1000),
		},
		{
			name:     "volume without density yields nothing",
			quantity: f(10), unit: "ml", molarMass: ethanolMW,
		},
		{
			name:     "mass without molar mass keeps mass only",
			quantity: f(5), unit: "g",
			wantMass: f(5),
		},
		{
			name:     "moles without molar mass keep moles only",
			quantity: f(25), unit: "mmol",
			wantMoles: f(25),
		},
		{
			name: "nil quantity",
			unit: "g", molarMass: ethanolMW,
		},
		{
			name:     "unknown unit",
			quantity: f(3), unit: "drops", molarMass: ethanolMW,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAmount(tt.quantity, tt.unit, tt.molarMass, tt.density)

			if tt.wantMass == nil {
				assert.Nil(t, got.Mass)
			} else {
				require.NotNil(t, got.Mass)
				assert.InDelta(t, *tt.wantMass, *got.Mass, 1e-9)
			}
			if tt.wantMoles == nil {
				assert.Nil(t, got.Moles)
			} else {
				require.NotNil(t, got.Moles)
				assert.InDelta(t, *tt.wantMoles, *got.Moles, 1e-9)
			}
		})
	}
}
