package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const pnrAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GeneratePNR returns a random 6 character uppercase alphanumeric PNR that contains at
// least one letter and one digit, so it can be recognised in free text.
func GeneratePNR() string {
	for {
		var b strings.Builder
		b.Grow(PNR_LENGTH)
		for i := 0; i < PNR_LENGTH; i++ {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(pnrAlphabet))))
			if err != nil {
				panic("crypto/rand unavailable: " + err.Error())
			}
			b.WriteByte(pnrAlphabet[n.Int64()])
		}
		pnr := b.String()
		if IsPNR(pnr) {
			return pnr
		}
	}
}

// IsPNR reports whether s is a well formed PNR
func IsPNR(s string) bool {
	if len(s) != PNR_LENGTH {
		return false
	}
	var letters, digits int
	for _, c := range s {
		switch {
		case c >= 'A' && c <= 'Z':
			letters++
		case c >= '0' && c <= '9':
			digits++
		default:
			return false
		}
	}
	return letters > 0 && digits > 0
}
