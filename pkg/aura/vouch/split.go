package vouch

const (
	// Share of a vouch that reaches the recipient, in basis points. The
	// remainder is the platform fee.
	RecipientShareBps = 7000
	PlatformShareBps  = 3000
)

// Split divides a vouch amount between the recipient and the platform. Both
// shares are independent floors, so up to one quark of the total can be left
// behind. That residue stays with the voucher rather than being swept into
// either share.
func Split(totalQuarks uint64) (recipientQuarks, platformQuarks uint64) {
	recipientQuarks = mulBpsFloor(totalQuarks, RecipientShareBps)
	platformQuarks = mulBpsFloor(totalQuarks, PlatformShareBps)
	return recipientQuarks, platformQuarks
}

// mulBpsFloor computes floor(quarks * bps / 10000) without overflowing on
// large quark amounts.
func mulBpsFloor(quarks, bps uint64) uint64 {
	quotient := quarks / 10000
	remainder := quarks % 10000
	return quotient*bps + remainder*bps/10000
}
