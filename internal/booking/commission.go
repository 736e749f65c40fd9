package booking

import "math"

// ComputeMarkup menghitung komisi agent dari harga dasar order (persen,
// dibulatkan ke sen terdekat). Markup hidup di order, bukan di kalender:
// harga CalendarEntry tidak pernah disentuh.
func ComputeMarkup(baseCents int64, pct float64) int64 {
	if baseCents <= 0 || pct <= 0 {
		return 0
	}
	return int64(math.Round(float64(baseCents) * pct / 100))
}
