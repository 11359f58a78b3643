package visual

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"
)

// Profile holds the filter parameters that shape one rendered video. Values
// stay within ranges ffmpeg's hue/eq/noise filters accept without clipping.
type Profile struct {
	// HueSpeed is the hue rotation rate in degrees per second, (0, 3.5].
	HueSpeed float64
	// Saturation multiplier, [1.0, 1.4].
	Saturation float64
	// Contrast multiplier, [1.0, 1.3].
	Contrast float64
	// Noise strength for the grain layer, [4, 100].
	Noise int
}

// DeriveProfile produces the visual profile for one generation. The digest
// mixes the prompt with the entropy token plus fresh time/random material, so
// identical prompts still render visually distinct videos.
func DeriveProfile(prompt, entropyToken string) Profile {
	seed := fmt.Sprintf("%s|%s|%d|%f",
		prompt,
		entropyToken,
		time.Now().UTC().UnixNano(),
		rand.Float64(),
	)
	sum := sha256.Sum256([]byte(seed))
	return profileFromDigest(sum)
}

func profileFromDigest(sum [sha256.Size]byte) Profile {
	a := binary.BigEndian.Uint64(sum[0:8])
	b := binary.BigEndian.Uint64(sum[8:16])
	c := binary.BigEndian.Uint64(sum[16:24])
	d := binary.BigEndian.Uint64(sum[24:32])

	return Profile{
		HueSpeed:   float64(a%350+1) / 100,
		Saturation: 1.0 + float64(b%41)/100,
		Contrast:   1.0 + float64(c%31)/100,
		Noise:      int(4 + d%97),
	}
}
