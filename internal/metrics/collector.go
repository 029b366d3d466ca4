// Copyright (C) 2025 clearbook-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package metrics

import (
	"sync"
	"time"
)

// MetricsCollector accumulates in-process counters and timing samples for
// the internal/health /metrics report. The Prometheus vectors declared
// elsewhere in this package remain the source of truth for scraping; this
// collector exists for cheap point-in-time snapshots that don't require a
// scrape round trip.
type MetricsCollector struct {
	mu sync.RWMutex

	// Counters
	SignatureCount     int64
	VerificationCount  int64
	SuccessfulVerifies int64
	FailedVerifies     int64
	NonceReseeds       int64
	HandshakeAttempts  int64
	HandshakeFailures  int64

	// Timing metrics (in microseconds)
	SignatureTimes     []int64
	VerificationTimes  []int64
	HandshakeLatencies []int64

	// Start time for uptime calculation
	startTime time.Time

	// Configuration
	maxTimingSamples int
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		startTime:        time.Now(),
		maxTimingSamples: 1000, // Keep last 1000 samples for each timing metric
	}
}

// RecordSignature records a signature operation
func (mc *MetricsCollector) RecordSignature(duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.SignatureCount++
	mc.recordTiming(&mc.SignatureTimes, duration)
}

// RecordVerification records a verification operation
func (mc *MetricsCollector) RecordVerification(success bool, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.VerificationCount++
	if success {
		mc.SuccessfulVerifies++
	} else {
		mc.FailedVerifies++
	}
	mc.recordTiming(&mc.VerificationTimes, duration)
}

// RecordNonceReseed records the nonce counter being reseeded from the
// exchange's last_nonce entity on a reconnect.
func (mc *MetricsCollector) RecordNonceReseed() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.NonceReseeds++
}

// RecordHandshake records a user-stream handshake attempt reaching Ready or
// failing along the way.
func (mc *MetricsCollector) RecordHandshake(success bool, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.HandshakeAttempts++
	if !success {
		mc.HandshakeFailures++
	}
	mc.recordTiming(&mc.HandshakeLatencies, duration)
}

// recordTiming records a timing sample
func (mc *MetricsCollector) recordTiming(timings *[]int64, duration time.Duration) {
	microseconds := duration.Microseconds()
	*timings = append(*timings, microseconds)

	// Keep only last N samples
	if len(*timings) > mc.maxTimingSamples {
		*timings = (*timings)[len(*timings)-mc.maxTimingSamples:]
	}
}

// GetSnapshot returns a snapshot of current metrics
func (mc *MetricsCollector) GetSnapshot() *MetricsSnapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return &MetricsSnapshot{
		Timestamp:           time.Now(),
		Uptime:              time.Since(mc.startTime),
		SignatureCount:      mc.SignatureCount,
		VerificationCount:   mc.VerificationCount,
		SuccessfulVerifies:  mc.SuccessfulVerifies,
		FailedVerifies:      mc.FailedVerifies,
		NonceReseeds:        mc.NonceReseeds,
		HandshakeAttempts:   mc.HandshakeAttempts,
		HandshakeFailures:   mc.HandshakeFailures,
		AvgSignatureTime:    calculateAverage(mc.SignatureTimes),
		AvgVerificationTime: calculateAverage(mc.VerificationTimes),
		AvgHandshakeTime:    calculateAverage(mc.HandshakeLatencies),
		P95SignatureTime:    calculatePercentile(mc.SignatureTimes, 95),
		P95VerificationTime: calculatePercentile(mc.VerificationTimes, 95),
		P95HandshakeTime:    calculatePercentile(mc.HandshakeLatencies, 95),
	}
}

// Reset resets all metrics
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.SignatureCount = 0
	mc.VerificationCount = 0
	mc.SuccessfulVerifies = 0
	mc.FailedVerifies = 0
	mc.NonceReseeds = 0
	mc.HandshakeAttempts = 0
	mc.HandshakeFailures = 0

	mc.SignatureTimes = nil
	mc.VerificationTimes = nil
	mc.HandshakeLatencies = nil

	mc.startTime = time.Now()
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	Timestamp time.Time
	Uptime    time.Duration

	// Counters
	SignatureCount     int64
	VerificationCount  int64
	SuccessfulVerifies int64
	FailedVerifies     int64
	NonceReseeds       int64
	HandshakeAttempts  int64
	HandshakeFailures  int64

	// Timing averages (microseconds)
	AvgSignatureTime    float64
	AvgVerificationTime float64
	AvgHandshakeTime    float64

	// 95th percentile timings (microseconds)
	P95SignatureTime    int64
	P95VerificationTime int64
	P95HandshakeTime    int64
}

// GetVerificationSuccessRate returns the verification success rate as a percentage
func (ms *MetricsSnapshot) GetVerificationSuccessRate() float64 {
	if ms.VerificationCount == 0 {
		return 0
	}
	return float64(ms.SuccessfulVerifies) / float64(ms.VerificationCount) * 100
}

// GetHandshakeFailureRate returns the handshake failure rate as a percentage
func (ms *MetricsSnapshot) GetHandshakeFailureRate() float64 {
	if ms.HandshakeAttempts == 0 {
		return 0
	}
	return float64(ms.HandshakeFailures) / float64(ms.HandshakeAttempts) * 100
}

// Helper functions

func calculateAverage(values []int64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum int64
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func calculatePercentile(values []int64, percentile int) int64 {
	if len(values) == 0 {
		return 0
	}

	// Simple implementation - for production, use a proper percentile algorithm
	// This is an approximation
	index := len(values) * percentile / 100
	if index >= len(values) {
		index = len(values) - 1
	}

	// Create a copy and sort (simple bubble sort for small datasets)
	sorted := make([]int64, len(values))
	copy(sorted, values)

	for i := 0; i < len(sorted)-1; i++ {
		for j := 0; j < len(sorted)-i-1; j++ {
			if sorted[j] > sorted[j+1] {
				sorted[j], sorted[j+1] = sorted[j+1], sorted[j]
			}
		}
	}

	return sorted[index]
}

// Global metrics collector instance
var globalCollector = NewMetricsCollector()

// GetGlobalCollector returns the global metrics collector
func GetGlobalCollector() *MetricsCollector {
	return globalCollector
}
