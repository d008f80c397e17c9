// Package engine drives scans: it reads every referenced group through
// the injected byte reader, fans regions out over a worker pool of
// vector scanners, and assembles the survivors into the next snapshot.
package engine

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/prometheus/client_golang/prometheus"

	"memscan/constraint"
	"memscan/scanner"
	"memscan/scantype"
	"memscan/snapshot"
)

// DefaultScanName names output snapshots when the request leaves the
// name empty
const DefaultScanName = "Manual Scan"

// Request describes one filter step
type Request struct {
	// Name labels the output snapshot, DefaultScanName when empty
	Name string

	// Snapshot is the input candidate set
	Snapshot *snapshot.Snapshot

	// Constraints are intersected; a single tree is the common case
	Constraints []constraint.Constraint

	// Type is the scannable element type for this step
	Type scantype.Type

	// Alignment is the element stride, AlignAuto to resolve from Type
	Alignment scantype.Alignment
}

// Engine runs scans against one target, reached only through the
// injected byte reader. One scan runs at a time per engine.
type Engine struct {
	cfg     Config
	reader  snapshot.ByteReader
	log     *logger.Logger
	metrics *Metrics

	mu    sync.Mutex
	state stateMachine
}

// New creates an engine bound to the given byte reader. Metrics are
// registered against reg; nil leaves them unregistered.
func New(cfg Config, reader snapshot.ByteReader, reg prometheus.Registerer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reader == nil {
		return nil, fmt.Errorf("%w: nil byte reader", scantype.ErrInvalidArguments)
	}
	return &Engine{
		cfg:     cfg,
		reader:  reader,
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "memscan-engine")),
		metrics: NewMetrics(reg),
	}, nil
}

// State returns the engine's current lifecycle state
func (e *Engine) State() State {
	return e.state.get()
}

func (e *Engine) workers() int {
	if e.cfg.Workers > 0 {
		return e.cfg.Workers
	}
	return runtime.NumCPU()
}

func (e *Engine) width() int {
	if e.cfg.VectorWidth > 0 {
		return e.cfg.VectorWidth
	}
	return scanner.VectorWidth()
}

// Scan reads fresh bytes for every group the input snapshot references
// and filters its regions through the constraint tree, returning the
// survivor snapshot. Cancellation is polled at region boundaries and
// inside the vector loop; a tripped handle yields ErrCancelled and no
// snapshot. A short read on one group excludes it from relative
// comparisons without failing the scan; a reader error aborts with
// ErrReadFailed.
func (e *Engine) Scan(req Request, cancel *Cancel, progress ProgressFunc) (*snapshot.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.begin() {
		return nil, fmt.Errorf("%w: scan already in progress", scantype.ErrInvalidArguments)
	}

	started := time.Now()
	out, err := e.scan(req, cancel, progress)
	switch {
	case err == nil:
		e.state.set(Done)
		e.metrics.ScansTotal.Inc()
		e.metrics.ScanDuration.Observe(time.Since(started).Seconds())
		e.metrics.SurvivorElements.Set(float64(out.ElementCount()))
	case cancel.Cancelled():
		e.state.set(Cancelled)
		e.metrics.ScansCancelled.Inc()
	default:
		e.state.set(Failed)
		e.metrics.ScansFailed.Inc()
	}
	return out, err
}

func (e *Engine) scan(req Request, cancel *Cancel, progress ProgressFunc) (*snapshot.Snapshot, error) {
	if req.Snapshot == nil || req.Snapshot.RegionCount() == 0 {
		return nil, fmt.Errorf("%w: empty input snapshot", scantype.ErrInvalidArguments)
	}
	tree := constraint.All(req.Constraints...)
	if tree == nil {
		return nil, fmt.Errorf("%w: empty constraint tree", scantype.ErrInvalidArguments)
	}

	// compile validates the tree, the type and the alignment before
	// any memory is touched
	prog, err := scanner.Compile(tree, req.Type, req.Alignment, e.width())
	if err != nil {
		return nil, err
	}
	stride := req.Snapshot.ResolveAlignment(req.Alignment, req.Type)

	if prog.Relative() && !hasHistory(req.Snapshot) {
		return nil, fmt.Errorf("%w: relative constraint on a snapshot with no previous sample", scantype.ErrInvalidArguments)
	}

	name := req.Name
	if name == "" {
		name = DefaultScanName
	}
	e.log.Infoln("Starting scan", name, "type", req.Type.String(),
		"regions", req.Snapshot.RegionCount())

	if err := e.readPhase(req.Snapshot, prog.Width(), cancel); err != nil {
		return nil, err
	}
	if cancel.Cancelled() {
		return nil, ErrCancelled
	}

	e.state.set(Scanning)
	survivors, err := e.scanPhase(req.Snapshot, prog, cancel, progress)
	if err != nil {
		return nil, err
	}

	e.state.set(Assembling)
	out := snapshot.New(name, req.Alignment, survivors)
	out.RecomputeIndex(prog.ElementSize(), stride)

	e.log.Infoln("Scan complete:", out.RegionCount(), "regions,",
		out.ElementCount(), "elements survive")
	return out, nil
}

// readPhase refreshes every distinct group in parallel and pads its
// buffers for safe vector loads. Each group has exactly one writer;
// buffers are read-only once this phase returns.
func (e *Engine) readPhase(snap *snapshot.Snapshot, width int, cancel *Cancel) error {
	groups := snap.Groups()

	sem := make(chan struct{}, e.workers())
	var wg sync.WaitGroup

	var errMu sync.Mutex
	var readErr error

	for _, group := range groups {
		if cancel.Cancelled() {
			break
		}
		wg.Add(1)
		sem <- struct{}{}

		go func(g *snapshot.ReadGroup) {
			defer func() {
				<-sem
				wg.Done()
			}()

			if err := g.ReadAll(e.reader); err != nil {
				e.log.Debugln("Group read failed at", fmt.Sprintf("0x%X", g.BaseAddress), err)
				errMu.Lock()
				if readErr == nil {
					readErr = err
				}
				errMu.Unlock()
				return
			}
			g.ResizeForSafeReading(width)
		}(group)
	}

	wg.Wait()
	return readErr
}

// scanPhase fans regions out over the worker pool, largest first so
// the big regions do not trail the scan. Survivors accumulate
// per-region; nothing shared is mutated during scanning.
func (e *Engine) scanPhase(snap *snapshot.Snapshot, prog *scanner.Program, cancel *Cancel, progress ProgressFunc) ([]*snapshot.Region, error) {
	regions := make([]*snapshot.Region, len(snap.Regions()))
	copy(regions, snap.Regions())
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Size > regions[j].Size
	})

	tracker := newProgressTracker(progress, len(regions), e.cfg.ProgressInterval)
	results := make([][]*snapshot.Region, len(regions))
	stop := cancel.Cancelled

	sem := make(chan struct{}, e.workers())
	var wg sync.WaitGroup

	for i, region := range regions {
		if cancel.Cancelled() {
			break
		}
		wg.Add(1)
		sem <- struct{}{}

		go func(slot int, r *snapshot.Region) {
			defer func() {
				<-sem
				wg.Done()
			}()

			if cancel.Cancelled() {
				return
			}
			survivors, aborted := scanner.ScanRegion(r, prog, stop)
			if aborted {
				return
			}
			results[slot] = survivors
			e.metrics.RegionsScanned.Inc()
			tracker.regionDone()
		}(i, region)
	}

	wg.Wait()
	if cancel.Cancelled() {
		return nil, ErrCancelled
	}

	var all []*snapshot.Region
	for _, rs := range results {
		all = append(all, rs...)
	}
	tracker.finish()
	return all, nil
}

// hasHistory reports whether any group of the snapshot has ever been
// sampled, i.e. whether a previous generation will exist after the
// read phase
func hasHistory(snap *snapshot.Snapshot) bool {
	for _, g := range snap.Groups() {
		if g.HasCurrent() {
			return true
		}
	}
	return false
}
