package tape

// BucketCount is one bucket below the smallest filter size, one per gap
// between sizes, and one at or above the largest.
const BucketCount = len(FilterSizes) + 1

// Classify counts trades into size buckets bounded by FilterSizes:
// < t0, [t0,t1), [t1,t2), [t2,t3), [t3,t4), >= t4.
func Classify(history []Trade) [BucketCount]int {
	var buckets [BucketCount]int
	for _, t := range history {
		buckets[bucketOf(t.Size)]++
	}
	return buckets
}

func bucketOf(size float64) int {
	for i, bound := range FilterSizes {
		if size < bound {
			return i
		}
	}
	return len(FilterSizes)
}
