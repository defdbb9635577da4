package detector_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/GreatValueCreamSoda/goflashdetect/detector"
)

// memSource replays in-memory RGB frames, standing in for a decoder.
type memSource struct {
	frames        [][]byte
	width, height int
	fps           float64
	idx           int
}

func (m *memSource) GetFrame(f *detector.Frame) error {
	if m.idx >= len(m.frames) {
		return errors.New("read past end of stream")
	}
	if err := f.Write(m.frames[m.idx]); err != nil {
		return err
	}
	m.idx++
	return nil
}

func (m *memSource) GetNumFrames() int         { return len(m.frames) }
func (m *memSource) GetFrameRate() float64     { return m.fps }
func (m *memSource) GetDimensions() (int, int) { return m.width, m.height }

func solidRGB(width, height int, r, g, b byte) []byte {
	frame := make([]byte, width*height*3)
	for i := 0; i < len(frame); i += 3 {
		frame[i], frame[i+1], frame[i+2] = r, g, b
	}
	return frame
}

func runDetector(t *testing.T, source detector.Source,
	opts detector.Options) detector.Report {
	t.Helper()

	det, err := detector.NewDetector(source, opts)
	if err != nil {
		t.Fatal(err)
	}

	report, err := det.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return report
}

func Test_Run_SolidBlack(t *testing.T) {
	frames := make([][]byte, 150)
	for i := range frames {
		frames[i] = solidRGB(64, 64, 0, 0, 0)
	}
	source := &memSource{frames: frames, width: 64, height: 64, fps: 30}

	report := runDetector(t, source, detector.DefaultOptions())

	if len(report.Intervals) != 0 {
		t.Fatalf("black video produced intervals %v", report.Intervals)
	}
	if len(report.RedFlashes) != 0 {
		t.Fatalf("black video produced %d red flash events",
			len(report.RedFlashes))
	}

	// With skipping enabled each empty window clears the deque, so five
	// seconds of video evaluate exactly five windows.
	if len(report.FlashCounts) != 5 {
		t.Fatalf("got %d window evaluations, want 5", len(report.FlashCounts))
	}
	for _, count := range report.FlashCounts {
		if count != 0 {
			t.Fatalf("black video counted %d flashes", count)
		}
	}
}

func Test_Run_AlternatingBlackWhite(t *testing.T) {
	frames := make([][]byte, 60)
	for i := range frames {
		if i%2 == 0 {
			frames[i] = solidRGB(64, 64, 255, 255, 255)
		} else {
			frames[i] = solidRGB(64, 64, 0, 0, 0)
		}
	}
	source := &memSource{frames: frames, width: 64, height: 64, fps: 30}

	report := runDetector(t, source, detector.DefaultOptions())

	for _, count := range report.FlashCounts {
		if count < detector.DefaultHertz {
			t.Fatalf("window counted %d flashes, want >= %d", count,
				detector.DefaultHertz)
		}
	}

	if len(report.Intervals) != 1 {
		t.Fatalf("got intervals %v, want exactly one", report.Intervals)
	}

	// The window first fills at frame 29 and stays dangerous to the end,
	// closing at the final frame time with the skip offset on the start.
	interval := report.Intervals[0]
	if math.Abs(interval.Start-(2+29.0/30)) > 1e-9 {
		t.Fatalf("interval start %g, want %g", interval.Start, 2+29.0/30)
	}
	if math.Abs(interval.End-2) > 1e-9 {
		t.Fatalf("interval end %g, want 2", interval.End)
	}

	// White tops out at a third red fraction, so no red flash events.
	if len(report.RedFlashes) != 0 {
		t.Fatalf("got %d red flash events, want 0", len(report.RedFlashes))
	}
}

func Test_Run_RedBlueStrobe(t *testing.T) {
	// Saturated red and blue swapped every four frames, roughly 4 Hz.
	frames := make([][]byte, 90)
	for i := range frames {
		if (i/4)%2 == 0 {
			frames[i] = solidRGB(64, 64, 255, 0, 0)
		} else {
			frames[i] = solidRGB(64, 64, 0, 0, 255)
		}
	}
	source := &memSource{frames: frames, width: 64, height: 64, fps: 30}

	report := runDetector(t, source, detector.DefaultOptions())

	if len(report.RedFlashes) == 0 {
		t.Fatal("red/blue strobe produced no red flash events")
	}
	for _, ev := range report.RedFlashes {
		if ev.Time < 0 || ev.Time > 3 {
			t.Fatalf("event time %g outside the stream", ev.Time)
		}
	}
}

func Test_Run_ShortStream(t *testing.T) {
	frames := make([][]byte, 10)
	for i := range frames {
		frames[i] = solidRGB(64, 64, 0, 0, 0)
	}
	source := &memSource{frames: frames, width: 64, height: 64, fps: 30}

	report := runDetector(t, source, detector.DefaultOptions())

	if len(report.Intervals) != 0 {
		t.Fatalf("short stream produced intervals %v", report.Intervals)
	}
	if len(report.FlashCounts) != 0 {
		t.Fatal("short stream should never fill a window")
	}
}

func Test_Run_EmptyStream(t *testing.T) {
	source := &memSource{width: 64, height: 64, fps: 30}

	report := runDetector(t, source, detector.DefaultOptions())
	if len(report.Intervals) != 0 {
		t.Fatalf("empty stream produced intervals %v", report.Intervals)
	}
}

func Test_NewDetector_SpeedBounds(t *testing.T) {
	source := &memSource{width: 64, height: 64, fps: 30}

	for _, speed := range []float64{6, 0.1, -1, 0} {
		opts := detector.DefaultOptions()
		opts.Speed = speed
		if _, err := detector.NewDetector(source, opts); !errors.Is(err,
			detector.ErrInvalidArgument) {
			t.Fatalf("speed %g: got %v, want ErrInvalidArgument", speed, err)
		}
	}
}

func Test_NewDetector_Validation(t *testing.T) {
	opts := detector.DefaultOptions()

	if _, err := detector.NewDetector(nil, opts); !errors.Is(err,
		detector.ErrInvalidArgument) {
		t.Fatalf("nil source: got %v", err)
	}

	badFPS := &memSource{width: 64, height: 64, fps: 0}
	if _, err := detector.NewDetector(badFPS, opts); !errors.Is(err,
		detector.ErrInvalidArgument) {
		t.Fatalf("zero fps: got %v", err)
	}

	tiny := &memSource{width: 2, height: 2, fps: 30}
	if _, err := detector.NewDetector(tiny, opts); !errors.Is(err,
		detector.ErrInvalidArgument) {
		t.Fatalf("tiny frame: got %v", err)
	}
}

func Test_Run_DegenerateFrame(t *testing.T) {
	frames := make([][]byte, 40)
	for i := range frames {
		frames[i] = solidRGB(64, 64, 0, 0, 0)
	}
	frames[1] = solidRGB(32, 32, 0, 0, 0)
	source := &memSource{frames: frames, width: 64, height: 64, fps: 30}

	det, err := detector.NewDetector(source, detector.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := det.Run(context.Background()); !errors.Is(err,
		detector.ErrDegenerateFrame) {
		t.Fatalf("got %v, want ErrDegenerateFrame", err)
	}
}

func Test_Run_Cancellation(t *testing.T) {
	frames := make([][]byte, 300)
	for i := range frames {
		frames[i] = solidRGB(64, 64, 0, 0, 0)
	}
	source := &memSource{frames: frames, width: 64, height: 64, fps: 30}

	det, err := detector.NewDetector(source, detector.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := det.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func Test_DetectFlashes_RejectsBadSpeed(t *testing.T) {
	source := &memSource{width: 64, height: 64, fps: 30}

	if _, err := detector.DetectFlashes(context.Background(), source,
		6); !errors.Is(err, detector.ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
	if source.idx != 0 {
		t.Fatal("frames were consumed before validation failed")
	}
}
