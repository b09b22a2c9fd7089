package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/axiomhq/axiom-go/axiom"
	"github.com/axiomhq/axiom-go/axiom/ingest"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const serviceName = "passscan"

// Options defines logger initialization parameters.
type Options struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// Axiom forwarding
	SendToAxiom  bool
	AxiomAPIKey  string
	AxiomOrgID   string
	AxiomDataset string
	AxiomFlush   time.Duration
	// Batcher knobs; zero values pick the defaults below.
	AxiomBufferSize int
	AxiomBatchSize  int
}

const (
	defaultBufferSize   = 1000
	defaultBatchSize    = 200
	defaultFlushEvery   = 10 * time.Second
	defaultIngestWindow = 15 * time.Second
)

var (
	global    zerolog.Logger
	forwarder *axiomForwarder
)

// Init sets the process-wide logger: rotated file output, console output
// (pretty or raw JSON) and optionally an Axiom forwarder. A forwarder that
// cannot be constructed disables forwarding but never fails Init.
func Init(opts Options) error {
	writers, err := buildWriters(opts)
	if err != nil {
		return err
	}

	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	global = zerolog.New(io.MultiWriter(writers...)).Level(lvl).With().Timestamp().Logger()
	log.Logger = global
	return nil
}

func buildWriters(opts Options) ([]io.Writer, error) {
	var writers []io.Writer

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("create logs dir: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		})
	}

	if opts.Pretty {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		writers = append(writers, os.Stdout)
	}

	if opts.SendToAxiom && opts.AxiomAPIKey != "" {
		fw, err := newForwarder(opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Axiom disabled: %v\n", err)
		} else {
			forwarder = fw
			writers = append(writers, &axiomSink{fw: fw})
		}
	}

	return writers, nil
}

// Close flushes any buffered external loggers.
func Close() {
	if forwarder != nil {
		_ = forwarder.Close()
	}
}

// Get returns the global logger.
func Get() *zerolog.Logger { return &global }

// axiomSink adapts zerolog's JSON line output to forwarder events.
// Debug lines never leave the process.
type axiomSink struct{ fw *axiomForwarder }

func (s *axiomSink) Write(p []byte) (int, error) {
	var ev map[string]interface{}
	if err := json.Unmarshal(p, &ev); err != nil {
		ev = map[string]interface{}{"message": string(p), "level": "info"}
	}
	if lvl, ok := ev["level"].(string); ok && lvl == "debug" {
		return len(p), nil
	}
	ev["service"] = serviceName
	if _, ok := ev[ingest.TimestampField]; !ok {
		ev[ingest.TimestampField] = time.Now()
	}
	s.fw.enqueue(axiom.Event(ev))
	return len(p), nil
}

// axiomForwarder batches events and ships them on a flush interval, on a full
// batch, and once more on Close. The queue is bounded; events past its
// capacity are dropped rather than blocking the logger.
type axiomForwarder struct {
	client    *axiom.Client
	dataset   string
	batchSize int
	events    chan axiom.Event
	wg        sync.WaitGroup
	cancel    context.CancelFunc
}

func newForwarder(opts Options) (*axiomForwarder, error) {
	dataset := opts.AxiomDataset
	if dataset == "" {
		dataset = "dev_" + serviceName
	}

	clientOpts := []axiom.Option{axiom.SetToken(opts.AxiomAPIKey)}
	if opts.AxiomOrgID != "" {
		clientOpts = append(clientOpts, axiom.SetOrganizationID(opts.AxiomOrgID))
	}
	client, err := axiom.NewClient(clientOpts...)
	if err != nil {
		return nil, err
	}

	buffer := opts.AxiomBufferSize
	if buffer <= 0 {
		buffer = defaultBufferSize
	}
	batchSize := opts.AxiomBatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flushEvery := opts.AxiomFlush
	if flushEvery <= 0 {
		flushEvery = defaultFlushEvery
	}

	ctx, cancel := context.WithCancel(context.Background())
	fw := &axiomForwarder{
		client:    client,
		dataset:   dataset,
		batchSize: batchSize,
		events:    make(chan axiom.Event, buffer),
		cancel:    cancel,
	}
	fw.wg.Add(1)
	go fw.run(ctx, flushEvery)
	return fw, nil
}

func (f *axiomForwarder) enqueue(ev axiom.Event) {
	select {
	case f.events <- ev:
	default:
		// queue full, drop
	}
}

func (f *axiomForwarder) run(ctx context.Context, flushEvery time.Duration) {
	defer f.wg.Done()

	ticker := time.NewTicker(flushEvery)
	defer ticker.Stop()

	batch := make([]axiom.Event, 0, f.batchSize)
	for {
		select {
		case <-ctx.Done():
			f.ship(batch)
			return
		case <-ticker.C:
			batch = f.ship(batch)
		case ev := <-f.events:
			batch = append(batch, ev)
			if len(batch) >= f.batchSize {
				batch = f.ship(batch)
			}
		}
	}
}

// ship sends the batch and returns it emptied for reuse.
func (f *axiomForwarder) ship(batch []axiom.Event) []axiom.Event {
	if len(batch) == 0 {
		return batch
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultIngestWindow)
	defer cancel()
	_, _ = f.client.IngestEvents(ctx, f.dataset, batch)
	return batch[:0]
}

func (f *axiomForwarder) Close() error {
	f.cancel()
	f.wg.Wait()
	return nil
}
