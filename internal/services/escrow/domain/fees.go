package domain

const (
	// PlatformFeePercent is the Gigmate commission on the agreed rate.
	PlatformFeePercent = 10
	// MediationFeePercent is charged on top when a booking enters mediation.
	MediationFeePercent = 10
)

// MaxAgreedRate is the largest agreed rate whose fee math stays within int64:
// rate × (100 + both fee percents) must not overflow before dividing by 100.
const MaxAgreedRate = Money((1<<63 - 1) / (100 + PlatformFeePercent + MediationFeePercent))

// Fees is the amount breakdown the venue pays for a booking.
type Fees struct {
	GigmateFee   Money
	MediationFee Money
	Total        Money
}

// ComputeFees derives the fee breakdown for an agreed rate. Both fees are
// taken from the agreed rate alone; the mediation fee never compounds on the
// platform fee.
func ComputeFees(agreedRate Money, mediationRequired bool) Fees {
	gigmateFee := percentOf(agreedRate, PlatformFeePercent)
	var mediationFee Money
	if mediationRequired {
		mediationFee = percentOf(agreedRate, MediationFeePercent)
	}
	return Fees{
		GigmateFee:   gigmateFee,
		MediationFee: mediationFee,
		Total:        agreedRate + gigmateFee + mediationFee,
	}
}
