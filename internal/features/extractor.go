// Package features turns transaction records into fixed-length numeric
// feature vectors for the anomaly ensemble.
package features

import (
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

// VectorSize is the fixed feature vector length.
const VectorSize = 12

// Feature indices. The order is part of the model contract; detectors and
// the reference window generator depend on it.
const (
	IdxAmount = iota
	IdxLogAmount
	IdxHour
	IdxWeekday
	IdxWeekend
	IdxCategory
	IdxMerchant
	IdxUser
	IdxLocation
	IdxVelocityCount
	IdxVelocityVolume
	IdxHasLocation
)

// Bucket sizes for hashed categorical features.
const (
	categoryBuckets = 100
	merchantBuckets = 100
	userBuckets     = 100
	locationBuckets = 50
)

// Vector is one extracted feature vector.
type Vector [VectorSize]float64

// VelocityHints carries externally supplied velocity counters. When the
// caller has no history the zero value is replaced by neutral defaults.
type VelocityHints struct {
	DailyCount  int64
	DailyVolume float64
}

// Extract derives a feature vector from a transaction record. It never
// fails: missing optional fields map to neutral defaults and a fixed hash
// bucket. Identical record + hints always produce identical vectors.
func Extract(rec *domain.TransactionRecord, hints VelocityHints) Vector {
	var v Vector

	v[IdxAmount] = rec.Amount
	v[IdxLogAmount] = math.Log1p(rec.Amount)

	ts := rec.Timestamp.UTC()
	v[IdxHour] = float64(ts.Hour())
	v[IdxWeekday] = float64(weekdayMondayFirst(ts.Weekday()))
	if isWeekend(ts.Weekday()) {
		v[IdxWeekend] = 1
	}

	v[IdxCategory] = float64(hashBucket(rec.Category, categoryBuckets))
	v[IdxMerchant] = float64(hashBucket(rec.Merchant, merchantBuckets))
	v[IdxUser] = float64(hashBucket(rec.UserID, userBuckets))
	v[IdxLocation] = float64(hashBucket(rec.Location, locationBuckets))
	if strings.TrimSpace(rec.Location) != "" {
		v[IdxHasLocation] = 1
	}

	count := hints.DailyCount
	if count <= 0 {
		count = 1
	}
	volume := hints.DailyVolume
	if volume <= 0 {
		volume = rec.Amount
	}
	v[IdxVelocityCount] = float64(count)
	v[IdxVelocityVolume] = volume

	return v
}

// Slice returns the vector as a new []float64.
func (v Vector) Slice() []float64 {
	out := make([]float64, VectorSize)
	copy(out, v[:])
	return out
}

// hashBucket maps a categorical value into [0, buckets) with FNV-1a so the
// encoding is stable across process restarts. Empty values share the
// "unknown" bucket.
func hashBucket(value string, buckets int) uint32 {
	s := strings.ToLower(strings.TrimSpace(value))
	if s == "" {
		s = "unknown"
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32() % uint32(buckets)
}

// weekdayMondayFirst maps Go's Sunday-first weekday to Monday=0..Sunday=6.
func weekdayMondayFirst(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}
