package pricing

import "math"

// VerifyTolerance is the maximum absolute difference (one cent) between a
// client-asserted unit price and the server recomputation that still
// verifies.
const VerifyTolerance = 0.01

// Verification reports whether a client-submitted price matches the
// authoritative recomputation. VerifiedPrice is always the server value;
// callers must never persist the client one.
type Verification struct {
	Valid         bool    `json:"valid"`
	VerifiedPrice float64 `json:"verifiedPrice"`
	ClientPrice   float64 `json:"clientPrice"`
	Delta         float64 `json:"delta"`
}

const verifyToleranceCents = VerifyTolerance * 100

// verifyAgainst compares a server price to a client assertion within
// tolerance. The comparison runs in integer cents: subtracting rounded
// dollar floats leaves sub-cent artifacts (100.01 - 100.00 is slightly
// more than 0.01) that must not flip the outcome.
func verifyAgainst(serverPrice, clientPrice float64) Verification {
	serverCents := math.Round(serverPrice * 100)
	clientCents := math.Round(clientPrice * 100)
	deltaCents := math.Abs(serverCents - clientCents)
	return Verification{
		Valid:         deltaCents <= verifyToleranceCents,
		VerifiedPrice: serverCents / 100,
		ClientPrice:   clientCents / 100,
		Delta:         deltaCents / 100,
	}
}
