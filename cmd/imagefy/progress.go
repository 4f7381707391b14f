package main

import (
	"io"

	"github.com/flaneur2020/imagefy/imagefy"
	"github.com/schollz/progressbar/v3"
)

// progressReporter lazily creates a progress bar once the image count is
// known.
type progressReporter struct {
	w           io.Writer
	description string
	bar         *progressbar.ProgressBar
}

// newProgress returns a reporter, or nil when progress output is disabled.
func newProgress(enabled bool, w io.Writer, description string) *progressReporter {
	if !enabled {
		return nil
	}
	return &progressReporter{w: w, description: description}
}

// Callback returns the function handed to the encoder or decoder.
func (p *progressReporter) Callback() imagefy.ProgressCallback {
	if p == nil {
		return nil
	}
	return func(current, total int64) {
		if p.bar == nil && total > 0 {
			p.bar = progressbar.NewOptions64(total,
				progressbar.OptionSetWriter(p.w),
				progressbar.OptionSetDescription(p.description),
				progressbar.OptionShowCount(),
				progressbar.OptionSetItsString("images"),
				progressbar.OptionShowIts(),
				progressbar.OptionClearOnFinish(),
				progressbar.OptionSetPredictTime(true),
			)
		}
		if p.bar != nil {
			p.bar.Set64(current)
		}
	}
}

// Finish clears the bar so the summary starts on a clean line.
func (p *progressReporter) Finish() {
	if p == nil || p.bar == nil {
		return
	}
	p.bar.Finish()
	p.bar = nil
}
