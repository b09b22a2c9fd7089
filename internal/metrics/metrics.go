package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	filesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "passscan",
			Name:      "files_processed_total",
			Help:      "Total files processed by extraction method and result",
		},
		[]string{"method", "result"},
	)

	stageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "passscan",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages (text_extract, render, ocr, structure)",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	batchFiles = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "passscan",
			Name:      "batch_files",
			Help:      "Number of files per scan batch",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
		},
	)

	ocrPages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "passscan",
			Name:      "ocr_pages_total",
			Help:      "Total pages sent through the OCR engine",
		},
	)

	textFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "passscan",
			Name:      "text_layer_fallbacks_total",
			Help:      "PDFs whose text layer was unusable and fell back to OCR",
		},
	)

	fileLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "passscan",
			Name:      "file_duration_seconds",
			Help:      "Wall-clock duration of single-file processing by method",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(filesProcessed, stageLatency, batchFiles, ocrPages, textFallbacks, fileLatency)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveFile(method, result string, dur time.Duration) {
	filesProcessed.WithLabelValues(method, result).Inc()
	fileLatency.WithLabelValues(method).Observe(dur.Seconds())
}

func ObserveStage(stage string, dur time.Duration) {
	stageLatency.WithLabelValues(stage).Observe(dur.Seconds())
}

func ObserveBatch(files int) { batchFiles.Observe(float64(files)) }

func AddOCRPages(n int) { ocrPages.Add(float64(n)) }

func IncTextFallback() { textFallbacks.Inc() }
