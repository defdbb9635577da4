package main

import (
	"context"
	"log"

	"github.com/schollz/progressbar/v3"

	"github.com/GreatValueCreamSoda/goflashdetect/detector"
	"github.com/GreatValueCreamSoda/goflashdetect/sources"
)

func main() {
	source, err := sources.NewFFms2Reader(settings.videoPath)
	if err != nil {
		log.Fatal("failed to open video: ", err)
	}

	det, err := detector.NewDetector(source, settings.options())
	if err != nil {
		log.Fatal(err)
	}

	bar := progressbar.NewOptions(
		source.GetNumFrames(),
		progressbar.OptionSetDescription("Scanning for flashes"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
	)

	det.SetProgressCallback(func(done, total int) {
		_ = bar.Add(1)
	})

	report, err := det.Run(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	printReport(&report)
}
