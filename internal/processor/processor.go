package processor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"watermarker/internal/exifdate"
	"watermarker/internal/watermark"
	"watermarker/pkg/imgutil"
)

// DatePlaceholder in text watermarks is replaced with each file's capture date.
const DatePlaceholder = "{date}"

// ErrDestinationConflict is returned per file when the export would land in
// the source file's own directory.
var ErrDestinationConflict = errors.New("output directory is the source directory")

var validate = validator.New()

func (o Options) Validate() error {
	if err := validate.Struct(o.Export); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := validateNaming(o.Export.Naming); err != nil {
		return err
	}
	req := o.Request
	req.Format = o.Export.Format
	return req.Validate()
}

// Run exports every supported image reachable from inputs. Files are read
// from disk, composited with opts.Request and written to opts.Export.OutputDir.
// Per-file failures, including inputs that cannot be stat'ed, are reported in
// the results and never stop the batch. Once ctx is done no further file is
// started; files already handed to a worker are reported as cancelled and
// Run returns ctx.Err().
func Run(ctx context.Context, inputs []string, opts Options, updates chan<- ProgressUpdate) (Summary, []Result, error) {
	summary := Summary{}
	var results []Result

	if ctx == nil {
		ctx = context.Background()
	}
	if err := opts.Validate(); err != nil {
		return summary, nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("run_id", ulid.Make().String())

	outAbs, err := filepath.Abs(opts.Export.OutputDir)
	if err != nil {
		return summary, nil, err
	}
	outAbs = filepath.Clean(outAbs)

	roots := make([]root, 0, len(inputs))
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			abs = in
		}
		r := root{input: in, abs: filepath.Clean(abs)}
		if info, err := os.Stat(in); err != nil {
			r.err = fmt.Errorf("%w: %v", watermark.ErrInvalidImage, err)
		} else {
			r.dir = info.IsDir()
		}
		roots = append(roots, r)
	}

	req := opts.Request
	req.Format = opts.Export.Format
	req = preload(req, log)

	comp := opts.Compositor
	if comp == nil {
		comp = watermark.NewCompositor(nil, log)
	}

	log.WithFields(logrus.Fields{
		"inputs": len(inputs), "output_dir": outAbs, "format": opts.Export.Format,
	}).Info("Starting export")

	jobs := make(chan Job)
	resultCh := make(chan Result)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := ctx.Err(); err != nil {
					resultCh <- Result{Path: job.Path, Display: job.Display, Err: err}
					continue
				}
				resultCh <- exportOne(job, req, opts.Export, outAbs, comp, log)
			}
		}()
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range resultCh {
			summary.Total++
			update := ProgressUpdate{ProcessedDelta: 1}
			switch {
			case IsCancelled(res.Err):
				summary.Cancelled++
				update.CancelledDelta = 1
			case res.Err != nil:
				summary.Failed++
				update.ErrorDelta = 1
				log.WithError(res.Err).WithField("path", res.Path).Warn("Export failed")
			default:
				summary.Succeeded++
				summary.BytesWritten += res.BytesWritten
				update.BytesWrittenDelta = res.BytesWritten
				log.WithFields(logrus.Fields{"path": res.Path, "output": res.Output}).Debug("Exported")
			}
			if updates != nil {
				updates <- update
			}
			results = append(results, res)
		}
	}()

	skipped := 0
	producerErr := make(chan error, 1)
	go func() {
		defer close(jobs)

		seen := map[string]struct{}{}
		send := func(job Job) error {
			if _, dup := seen[job.Path]; dup {
				return nil
			}
			seen[job.Path] = struct{}{}
			select {
			case jobs <- job:
			case <-ctx.Done():
				return ctx.Err()
			}
			if updates != nil {
				updates <- ProgressUpdate{TotalDelta: 1}
			}
			return nil
		}

		for _, r := range roots {
			if r.err != nil {
				if err := send(Job{Path: r.abs, RelDir: ".", Display: r.input, Err: r.err}); err != nil {
					producerErr <- err
					return
				}
				continue
			}
			if !r.dir {
				if !imgutil.Supported(r.abs) {
					skipped++
					log.WithField("path", r.input).Info("Skipping unsupported file")
					continue
				}
				if err := send(Job{Path: r.abs, RelDir: ".", Display: r.input}); err != nil {
					producerErr <- err
					return
				}
				continue
			}
			if err := walkRoot(r, opts.Recursive, outAbs, send, &skipped); err != nil {
				producerErr <- err
				return
			}
		}
		producerErr <- nil
	}()

	wg.Wait()
	close(resultCh)
	<-collectorDone

	walkErr := <-producerErr
	summary.Skipped = skipped
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	log.WithFields(logrus.Fields{
		"total": summary.Total, "failed": summary.Failed,
		"cancelled": summary.Cancelled, "skipped": summary.Skipped,
	}).Info("Export finished")

	if err := ctx.Err(); err != nil {
		return summary, results, err
	}
	if walkErr != nil {
		return summary, results, walkErr
	}
	return summary, results, nil
}

// IsCancelled reports whether err stems from the run's context ending.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

type root struct {
	input string
	abs   string
	dir   bool
	err   error
}

func walkRoot(r root, recursive bool, outAbs string, send func(Job) error, skipped *int) error {
	outputInsideRoot := outAbs != r.abs && isWithin(outAbs, r.abs)

	return fs.WalkDir(os.DirFS(r.abs), ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path == "." {
				return nil
			}
			if !recursive {
				return fs.SkipDir
			}
			if outputInsideRoot && isWithin(filepath.Join(r.abs, path), outAbs) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !imgutil.Supported(path) {
			*skipped++
			return nil
		}

		rel := filepath.FromSlash(path)
		return send(Job{
			Path:    filepath.Join(r.abs, rel),
			RelDir:  filepath.Dir(rel),
			Display: filepath.Join(r.input, rel),
		})
	})
}

func exportOne(job Job, req watermark.RenderRequest, spec ExportSpec, outAbs string, comp *watermark.Compositor, log logrus.FieldLogger) Result {
	res := Result{Path: job.Path, Display: job.Display}
	if job.Err != nil {
		res.Err = job.Err
		return res
	}

	destDir := filepath.Join(outAbs, job.RelDir)
	if sameDir(filepath.Dir(job.Path), destDir) {
		res.Err = fmt.Errorf("%w: %s", ErrDestinationConflict, destDir)
		return res
	}

	name, err := OutputName(spec.Naming, job.Path, spec.Format)
	if err != nil {
		res.Err = err
		return res
	}
	destPath := filepath.Join(destDir, name)

	src, err := watermark.LoadImage(job.Path)
	if err != nil {
		res.Err = err
		return res
	}

	out, err := comp.Composite(src, withDate(req, job.Path))
	if err != nil {
		res.Err = err
		return res
	}

	n, err := writeImage(out, destDir, destPath, spec)
	if err != nil {
		res.Err = err
		return res
	}
	log.WithFields(logrus.Fields{"path": job.Path, "bytes": n}).Debug("Wrote output")

	res.Output = destPath
	res.BytesWritten = n
	return res
}

// preload decodes an image watermark once so workers share it. An unreadable
// watermark image drops the watermark for the whole batch.
func preload(req watermark.RenderRequest, log logrus.FieldLogger) watermark.RenderRequest {
	spec, ok := req.Watermark.(watermark.ImageWatermark)
	if !ok || spec.Source != nil {
		return req
	}
	img, err := watermark.LoadImage(spec.SourcePath)
	if err != nil {
		log.WithError(err).WithField("watermark", spec.SourcePath).Warn("Watermark image unavailable, exporting without it")
		req.Watermark = watermark.NoWatermark{}
		return req
	}
	spec.Source = img
	req.Watermark = spec
	return req
}

func withDate(req watermark.RenderRequest, path string) watermark.RenderRequest {
	text, ok := req.Watermark.(watermark.TextWatermark)
	if !ok || !strings.Contains(text.Content, DatePlaceholder) {
		return req
	}
	text.Content = strings.ReplaceAll(text.Content, DatePlaceholder, exifdate.DisplayDate(path))
	req.Watermark = text
	return req
}

func writeImage(img image.Image, destDir, destPath string, spec ExportSpec) (int64, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, err
	}

	tmpFile, err := os.CreateTemp(destDir, ".watermarker-*.tmp")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmpFile.Name())

	if err := encode(tmpFile, img, spec.Format, spec.Quality); err != nil {
		_ = tmpFile.Close()
		return 0, fmt.Errorf("encode %s: %w", spec.Format, err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return 0, err
	}
	if err := tmpFile.Close(); err != nil {
		return 0, err
	}

	if err := replaceFile(tmpFile.Name(), destPath); err != nil {
		return 0, err
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}

func sameDir(a, b string) bool {
	return strings.EqualFold(filepath.Clean(a), filepath.Clean(b))
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
