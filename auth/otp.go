package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const otpDigits = 6

var otpMax = big.NewInt(1_000_000)

// GenerateOTP returns a random zero-padded 6-digit passcode.
func GenerateOTP() string {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// nothing sensible can continue past that.
		panic(fmt.Sprintf("otp generation: %v", err))
	}
	return fmt.Sprintf("%0*d", otpDigits, n)
}
