// Package sources provides detector.Source implementations. The FFMS2
// reader decodes any container FFMS2 can index into the packed RGB frames
// the analyzers consume.
package sources

import (
	"errors"
	"runtime"

	ffms "github.com/GreatValueCreamSoda/goffms2"
	"github.com/GreatValueCreamSoda/gopixfmts"

	"github.com/GreatValueCreamSoda/goflashdetect/detector"
)

type ffmsSource struct {
	currentIndex int
	video        *ffms.VideoSource
	numFrames    int
	width        int
	height       int
	frameRate    float64
	packed       []byte
}

// NewFFms2Reader indexes and opens the video at path, configures FFMS2 to
// emit 8-bit interleaved RGB at the encoded resolution, and returns a
// source delivering frames in presentation order.
func NewFFms2Reader(path string) (detector.Source, error) {
	var err error

	var indexer *ffms.Indexer
	if indexer, _, err = ffms.CreateIndexer(path); err != nil {
		return nil, err
	}

	var index *ffms.Index
	if index, _, err = indexer.DoIndexing(ffms.IEHAbort); err != nil {
		return nil, err
	}

	track, _, err := index.GetFirstTrackOfType(ffms.TypeVideo)
	if err != nil {
		return nil, err
	}

	var decThreads int = runtime.NumCPU() / 2
	video, _, err := ffms.CreateVideoSource(path, index, track, decThreads,
		ffms.SeekNormal)
	if err != nil {
		return nil, err
	}

	props, err := video.GetVideoProperties()
	if err != nil {
		return nil, err
	}

	ff, _, err := video.GetFrame(0)
	if err != nil {
		return nil, err
	}

	video.SetOutputFormatV2([]int{int(gopixfmts.PixFmtRGB24)},
		ff.EncodedWidth, ff.EncodedHeight, ffms.ResizerBicubic)

	ff, _, err = video.GetFrame(0)
	if err != nil {
		return nil, err
	}

	width, height := ff.ScaledWidth, ff.ScaledHeight
	if width <= 0 || height <= 0 {
		width, height = ff.EncodedWidth, ff.EncodedHeight
	}

	if props.FPSDenominator == 0 {
		return nil, errors.New("video reports a zero frame rate denominator")
	}

	return &ffmsSource{
		video:     video,
		numFrames: props.NumFrames,
		width:     width,
		height:    height,
		frameRate: float64(props.FPSNumerator) / float64(props.FPSDenominator),
		packed:    make([]byte, width*height*3),
	}, nil
}

// GetFrame decodes the next frame and writes it into frame as tightly
// packed RGB, dropping any stride padding FFMS2 leaves per row.
func (s *ffmsSource) GetFrame(frame *detector.Frame) error {
	ffmsFrame, _, err := s.video.GetFrame(s.currentIndex)
	if err != nil {
		return err
	}

	rowBytes := s.width * 3
	stride := ffmsFrame.Linesize[0]
	data := ffmsFrame.Data[0]

	for y := 0; y < s.height; y++ {
		copy(s.packed[y*rowBytes:(y+1)*rowBytes],
			data[y*stride:y*stride+rowBytes])
	}

	if err := frame.Write(s.packed); err != nil {
		return err
	}

	s.currentIndex++
	return nil
}

func (s *ffmsSource) GetNumFrames() int         { return s.numFrames }
func (s *ffmsSource) GetFrameRate() float64     { return s.frameRate }
func (s *ffmsSource) GetDimensions() (int, int) { return s.width, s.height }
