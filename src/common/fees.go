package common

// CalculateFees splits a gross amount in minor currency units into the
// platform's share and the provider's share. The fee is rounded half-up.
// feePercent is clamped to [0,100] so the provider amount can never go
// negative.
func CalculateFees(amount int64, feePercent int64) (platformFee int64, providerAmount int64) {
	if amount <= 0 {
		return 0, 0
	}
	if feePercent < 0 {
		feePercent = 0
	}
	if feePercent > 100 {
		feePercent = 100
	}
	platformFee = (amount*feePercent + 50) / 100
	providerAmount = amount - platformFee
	return platformFee, providerAmount
}
