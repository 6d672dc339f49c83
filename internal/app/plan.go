package app

import (
	"math/rand"

	"chatblast/internal/domain"
)

// PlanBatches partitions the recipient list into contiguous batches. The
// batch size is drawn once, uniformly from [minSize,maxSize], and applied to
// every batch in the run; only the last batch may be shorter.
func PlanBatches(recipients []domain.Recipient, minSize, maxSize int, rng *rand.Rand) []domain.Batch {
	if len(recipients) == 0 {
		return nil
	}
	if minSize < 1 {
		minSize = 1
	}
	if maxSize < minSize {
		maxSize = minSize
	}

	size := minSize
	if maxSize > minSize {
		size += rng.Intn(maxSize - minSize + 1)
	}

	batches := make([]domain.Batch, 0, (len(recipients)+size-1)/size)
	for start := 0; start < len(recipients); start += size {
		end := start + size
		if end > len(recipients) {
			end = len(recipients)
		}
		batches = append(batches, domain.Batch{
			Index:      len(batches),
			Recipients: recipients[start:end],
		})
	}
	return batches
}
