package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	analysisSubmittedTotal     atomic.Uint64
	analysisScoredTotal        atomic.Uint64
	analysisEnrichedTotal      atomic.Uint64
	analysisEnqueueFailedTotal atomic.Uint64
	leadsCapturedTotal         atomic.Uint64

	providerFailed = newLabeledCounter()
	workerJobs     = newLabeledCounter()
	uploads        = newLabeledCounter()

	providerDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncAnalysisSubmitted counts accepted submissions.
func IncAnalysisSubmitted() {
	analysisSubmittedTotal.Add(1)
}

// IncAnalysisScored counts submissions that received a score inline.
func IncAnalysisScored() {
	analysisScoredTotal.Add(1)
}

// IncAnalysisEnriched counts records scored later by the worker.
func IncAnalysisEnriched() {
	analysisEnrichedTotal.Add(1)
}

// IncAnalysisEnqueueFailed counts enrichment jobs that could not be queued.
func IncAnalysisEnqueueFailed() {
	analysisEnqueueFailedTotal.Add(1)
}

// IncLeadsCaptured counts leads created from the questionnaire.
func IncLeadsCaptured() {
	leadsCapturedTotal.Add(1)
}

// IncProviderFailed counts a failed call to the named provider.
func IncProviderFailed(provider string) {
	providerFailed.Inc(provider)
}

// IncWorkerJob counts a queue message by outcome (received, completed, failed, dropped).
func IncWorkerJob(outcome string) {
	workerJobs.Inc(outcome)
}

// IncUpload counts uploaded files by extraction outcome.
func IncUpload(outcome string) {
	uploads.Inc(outcome)
}

// ObserveProviderDurationMs records a provider call duration in milliseconds.
func ObserveProviderDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	providerDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "analysis_submitted_total", "Total story submissions accepted", analysisSubmittedTotal.Load())
	writeCounter(&buf, "analysis_scored_total", "Total submissions scored inline", analysisScoredTotal.Load())
	writeCounter(&buf, "analysis_enriched_total", "Total submissions scored by the worker", analysisEnrichedTotal.Load())
	writeCounter(&buf, "analysis_enqueue_failed_total", "Total enrichment jobs that failed to enqueue", analysisEnqueueFailedTotal.Load())
	writeCounter(&buf, "leads_captured_total", "Total questionnaire leads captured", leadsCapturedTotal.Load())
	writeLabeledCounter(&buf, "analysis_provider_failed_total", "Total failed provider calls", "provider", providerFailed.Snapshot())
	writeLabeledCounter(&buf, "worker_jobs_total", "Total enrichment queue messages by outcome", "outcome", workerJobs.Snapshot())
	writeLabeledCounter(&buf, "uploads_total", "Total uploaded files by extraction outcome", "outcome", uploads.Snapshot())
	writeHistogram(&buf, "provider_duration_ms", "Provider call duration in milliseconds", providerDuration.Snapshot())
	return buf.String()
}

type labeledCounter struct {
	mu     sync.Mutex
	values map[string]uint64
}

func newLabeledCounter() *labeledCounter {
	return &labeledCounter{values: map[string]uint64{}}
}

func (l *labeledCounter) Inc(label string) {
	l.mu.Lock()
	l.values[label]++
	l.mu.Unlock()
}

func (l *labeledCounter) Snapshot() map[string]uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]uint64, len(l.values))
	for k, v := range l.values {
		out[k] = v
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
