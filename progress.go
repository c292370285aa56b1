package elq

import "gopkg.in/cheggaaa/pb.v1"

// Progress reports how far a batch loop has come. A disabled progress never writes.
type Progress struct {
	bar *pb.ProgressBar
}

// NewProgress starts a progress bar over n items when enabled.
func NewProgress(n int, enabled bool) *Progress {
	if !enabled {
		return &Progress{}
	}
	bar := pb.New(n)
	bar.Start()
	return &Progress{bar: bar}
}

// Increment moves the bar forward by one.
func (p *Progress) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

// Finish stops the bar.
func (p *Progress) Finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}
