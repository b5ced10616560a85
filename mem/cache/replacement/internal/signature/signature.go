// Package signature hashes requester context into table indices.
package signature

const crcPolynomial = uint64(3988292384)

// CRC folds an address through 32 rounds of a CRC-32 style reduction. It is
// the hash used by the Hawkeye predictor and the history sampler.
func CRC(addr uint64) uint64 {
	v := addr

	for i := 0; i < 32; i++ {
		if v&1 == 1 {
			v = (v >> 1) ^ crcPolynomial
		} else {
			v >>= 1
		}
	}

	return v
}

// SHiP returns the SHiP++ signature of a PC. The request kind takes the
// lowest bit so that demand and prefetch fills from the same PC train
// different counters.
func SHiP(pc uint64, isPrefetch bool, tableSize int) uint32 {
	usePC := pc << 1
	if isPrefetch {
		usePC++
	}

	return uint32(usePC % uint64(tableSize))
}
