package features

import "hash/fnv"

const bucketResolution = 10000

// bucket maps a key to a stable position in [0, 1).
func bucket(key string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return float64(h.Sum32()%bucketResolution) / bucketResolution
}
