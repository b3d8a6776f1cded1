package anomaly

import (
	"math"
	"math/rand"

	"github.com/opensource-finance/harrier/internal/features"
)

// windowSeed fixes the synthetic window so scoring is reproducible across
// runs and hosts.
const windowSeed = 7

// DefaultReferenceWindow generates a deterministic window of typical-spend
// feature vectors. Single-transaction scoring fits detectors against this
// window when the caller supplies no history; it stands in for the
// historical sample a production deployment would load, and scoring
// degrades to neutral when the window is absent entirely.
func DefaultReferenceWindow() [][]float64 {
	const size = 128
	rng := rand.New(rand.NewSource(windowSeed))

	rows := make([][]float64, size)
	for i := range rows {
		row := make([]float64, features.VectorSize)

		// Log-normal everyday spend, clamped to a plausible band.
		amount := math.Exp(rng.NormFloat64()*1.0 + 4.8)
		if amount < 5 {
			amount = 5
		}
		if amount > 3000 {
			amount = 3000
		}
		row[features.IdxAmount] = amount
		row[features.IdxLogAmount] = math.Log1p(amount)

		// Mostly business hours, weekdays.
		row[features.IdxHour] = float64(8 + rng.Intn(11))
		if rng.Float64() < 0.12 {
			row[features.IdxWeekday] = float64(5 + rng.Intn(2))
			row[features.IdxWeekend] = 1
		} else {
			row[features.IdxWeekday] = float64(rng.Intn(5))
		}

		row[features.IdxCategory] = float64(rng.Intn(100))
		row[features.IdxMerchant] = float64(rng.Intn(100))
		row[features.IdxUser] = float64(rng.Intn(100))
		row[features.IdxLocation] = float64(rng.Intn(50))
		if rng.Float64() < 0.8 {
			row[features.IdxHasLocation] = 1
		}

		count := 1 + rng.Intn(4)
		row[features.IdxVelocityCount] = float64(count)
		row[features.IdxVelocityVolume] = amount * (1 + rng.Float64()*float64(count))

		rows[i] = row
	}
	return rows
}
