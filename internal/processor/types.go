package processor

import (
	"github.com/sirupsen/logrus"

	"watermarker/internal/watermark"
)

type Options struct {
	Request   watermark.RenderRequest
	Export    ExportSpec
	Recursive bool
	Workers   int

	Compositor *watermark.Compositor
	Logger     logrus.FieldLogger
}

// ExportSpec controls where and how composited images are written. Format
// overrides Request.Format.
type ExportSpec struct {
	Format    watermark.Format
	Quality   int        `validate:"gte=0,lte=100"`
	Naming    NamingRule `validate:"-"`
	OutputDir string     `validate:"required"`
}

// Job is one file to export. A Job carrying Err fails without being read.
type Job struct {
	Path    string
	RelDir  string
	Display string
	Err     error
}

type Result struct {
	Path         string
	Display      string
	Output       string
	Err          error
	BytesWritten int64
}

type Summary struct {
	Total        int
	Succeeded    int
	Failed       int
	Cancelled    int
	Skipped      int
	BytesWritten int64
}

type ProgressUpdate struct {
	TotalDelta        int
	ProcessedDelta    int
	ErrorDelta        int
	CancelledDelta    int
	BytesWrittenDelta int64
}
