package auth

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
)

// otpSpan is the number of distinct 6-digit codes, 100000..999999.
const otpSpan = 900000

// GenerateOTP returns a 6-digit one-time code from a cryptographically
// secure source. Rejection sampling keeps the distribution uniform; a
// plain modulo over 2^32 would skew the low codes.
func GenerateOTP() (string, error) {
	const limit = (1 << 32) / otpSpan * otpSpan

	for {
		var buf [4]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		v := binary.BigEndian.Uint32(buf[:])
		if v < limit {
			return strconv.Itoa(100000 + int(v%otpSpan)), nil
		}
	}
}
