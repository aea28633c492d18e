package ledger

import (
	"fmt"
	"math/rand"
)

// RandomColor returns a hex color not present in existing, regenerating on
// collision. Distinctness is best effort; after maxTries the last candidate
// is returned even if it collides.
func RandomColor(existing []string) string {
	const maxTries = 100

	taken := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		taken[c] = struct{}{}
	}

	color := randomHex()
	for i := 0; i < maxTries; i++ {
		if _, ok := taken[color]; !ok {
			return color
		}
		color = randomHex()
	}
	return color
}

func randomHex() string {
	return fmt.Sprintf("#%06X", rand.Intn(0x1000000))
}
