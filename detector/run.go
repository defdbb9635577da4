package detector

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/GreatValueCreamSoda/goflashdetect/blockingpool"
	"github.com/GreatValueCreamSoda/goflashdetect/redflash"
)

// frameBuffers is how many decoded frames may be in flight between the
// reader goroutine and the analysis loop.
const frameBuffers = 3

// DetectFlashes analyzes the source at the given playback speed with the
// default configuration and returns the merged danger intervals.
func DetectFlashes(ctx context.Context, source Source, speed float64) (
	[]Interval, error) {

	opts := DefaultOptions()
	opts.Speed = speed

	d, err := NewDetector(source, opts)
	if err != nil {
		return nil, err
	}

	report, err := d.Run(ctx)
	if err != nil {
		return nil, err
	}
	return report.Intervals, nil
}

// Run processes the whole stream and returns the report. The reader decodes
// frames into recycled buffers on its own goroutine; analysis itself is
// strictly sequential, as the sliding windows depend on admission order.
//
// An empty stream yields an empty report. A stream shorter than one window
// yields only intervals that have already closed, which is none. On
// cancellation or error no partial intervals are reported.
func (d *Detector) Run(ctx context.Context) (Report, error) {
	var report Report

	if d.total == 0 {
		return report, nil
	}

	pool := blockingpool.NewBlockingPool[*Frame](frameBuffers)
	for range frameBuffers {
		frame, err := NewFrame(d.width, d.height)
		if err != nil {
			return report, err
		}
		pool.Put(frame)
	}

	frameChan := make(chan *Frame, 1)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer close(frameChan)
		return d.readerThread(ctx, &pool, frameChan)
	})

	group.Go(func() error {
		return d.analysisThread(ctx, &pool, frameChan)
	})

	if err := group.Wait(); err != nil {
		return report, err
	}

	report.Intervals = MergeIntervals(d.intervals)
	report.RedFlashes = d.redBuf.Events()
	report.FlashCounts = d.flashCounts
	return report, nil
}

// readerThread decodes every frame of the stream into buffers obtained from
// the pool and sends them on frameChan in order.
func (d *Detector) readerThread(ctx context.Context,
	pool *blockingpool.BlockingPool[*Frame], frameChan chan<- *Frame) error {

	for i := 0; i < d.total; i++ {
		frame, err := pool.Get(ctx)
		if err != nil {
			return err
		}

		if err := d.source.GetFrame(frame); err != nil {
			return fmt.Errorf("reading frame %d: %w", i, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case frameChan <- frame:
		}
	}

	return nil
}

// analysisThread consumes decoded frames in order and drives both
// analyzers, tracking danger intervals on luminance flash-count crossings.
func (d *Detector) analysisThread(ctx context.Context,
	pool *blockingpool.BlockingPool[*Frame], frameChan <-chan *Frame) error {

	startDanger := -1
	counter := 0

	for range d.total {
		var frame *Frame

		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame = <-frameChan:
			if frame == nil {
				return nil
			}
		}

		if err := d.admitFrame(frame); err != nil {
			return err
		}
		pool.Put(frame)

		if len(d.window) == d.windowSize {
			if err := d.evaluateWindow(counter, &startDanger); err != nil {
				return err
			}
		}

		counter++
		if d.progress != nil {
			d.progress(counter, d.total)
		}
	}

	// A window still dangerous when the stream ends closes at the final
	// frame time.
	if startDanger >= 0 {
		d.closeInterval(startDanger, counter)
	}

	return nil
}

// admitFrame converts one frame and feeds both analyzer inputs: the region
// samples enter the red-flash window immediately, the lightness plane joins
// the luminance deque.
func (d *Detector) admitFrame(frame *Frame) error {
	if err := d.planes.Convert(frame.Read()); err != nil {
		return fmt.Errorf("%w: %v", ErrDegenerateFrame, err)
	}

	samples, err := d.planes.RegionSamples(redflash.GridSize, d.samples)
	if err != nil {
		return err
	}
	d.samples = samples

	if err := d.redBuf.Admit(samples); err != nil {
		return err
	}

	plane := d.takePlane()
	copy(plane, d.planes.L)
	d.window = append(d.window, plane)

	return nil
}

// evaluateWindow runs the luminance analyzer over the full deque, opens or
// closes the danger interval on hertz crossings, and advances the window.
func (d *Detector) evaluateWindow(counter int, startDanger *int) error {
	flashes, err := d.lum.MaxFlashes(d.window)
	if err != nil {
		return err
	}
	d.flashCounts = append(d.flashCounts, flashes)

	if flashes >= d.opts.Hertz && *startDanger == -1 {
		*startDanger = counter
	}

	if flashes < d.opts.Hertz && *startDanger >= 0 {
		d.closeInterval(*startDanger, counter)
		*startDanger = -1
	}

	if d.opts.SkipEnabled && flashes == 0 {
		// Nothing moved in a whole second; skip ahead a full window.
		d.free = append(d.free, d.window...)
		d.window = d.window[:0]
	} else {
		d.free = append(d.free, d.window[0])
		d.window = append(d.window[:0], d.window[1:]...)
	}

	return nil
}

// closeInterval emits [start, end] for a danger span, offsetting the start
// by two seconds when skipping is enabled to compensate for windows the
// skip jumped over.
func (d *Detector) closeInterval(startDanger, counter int) {
	offset := 0.0
	if d.opts.SkipEnabled {
		offset = 2
	}
	d.intervals = append(d.intervals, Interval{
		Start: offset + float64(startDanger)/d.fps,
		End:   float64(counter) / d.fps,
	})
}

// takePlane returns a recycled lightness plane, or a new one when the free
// list is empty.
func (d *Detector) takePlane() []float64 {
	if n := len(d.free); n > 0 {
		plane := d.free[n-1]
		d.free = d.free[:n-1]
		return plane
	}
	return make([]float64, d.width*d.height)
}
