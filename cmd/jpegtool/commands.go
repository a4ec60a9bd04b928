package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-jpeg/codec"
	"github.com/nvr-ai/go-jpeg/images"
	"github.com/nvr-ai/go-jpeg/jpeg"
	"github.com/nvr-ai/go-jpeg/profiler"
	"github.com/nvr-ai/go-jpeg/rawframe"
	"github.com/nvr-ai/go-jpeg/util"
)

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (a *app) decoder() (*jpeg.Decoder, error) {
	return jpeg.NewDecoder(jpeg.WithBackend(a.backend), jpeg.WithLogger(a.logger))
}

func (a *app) encoder(quality int) (*jpeg.Encoder, error) {
	return jpeg.NewEncoder(jpeg.WithBackend(a.backend), jpeg.WithLogger(a.logger), jpeg.WithQuality(quality))
}

// info prints the frame header of every input.
func (a *app) info(args []string) error {
	files, err := loadInputs(args)
	if err != nil {
		return err
	}

	dec, err := a.decoder()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tSIZE\tFITS\tCOMPONENTS\tPROGRESSIVE\tBYTES")
	for _, f := range files {
		size, err := dec.ReadHeader(f.Data)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\t\t\t\t%d\n", f.Path, err, len(f.Data))
			continue
		}
		fits := "-"
		if r, ok := images.FitResolution(size); ok {
			fits = r.Alias
		}
		hdr, _ := codec.ScanHeader(f.Data)
		fmt.Fprintf(w, "%s\t%v\t%s\t%d\t%t\t%d\n", f.Path, size, fits, hdr.Components, hdr.Progressive, len(f.Data))
	}
	return w.Flush()
}

// decode writes one JPEG as a raw frame container.
func (a *app) decode(args []string) error {
	fs := a.newFlagSet("decode")
	out := fs.String("out", "", "Output raw frame path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *out == "" {
		return fmt.Errorf("usage: decode -out frame.rgbf input.jpg")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	dec, err := a.decoder()
	if err != nil {
		return err
	}
	img, err := dec.Decode(data)
	if err != nil {
		return errors.Wrap(err, fs.Arg(0))
	}

	frames, err := rawframe.New(rawframe.Options{Level: a.cfg.RawFrame.Level})
	if err != nil {
		return err
	}
	defer frames.Close()

	raw, err := frames.Marshal(img)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, raw, 0o644); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "%s: %v -> %s (%d bytes)\n", fs.Arg(0), img.Size(), *out, len(raw))
	return nil
}

// encode writes one raw frame container as JPEG.
func (a *app) encode(args []string) error {
	fs := a.newFlagSet("encode")
	out := fs.String("out", "", "Output JPEG path")
	quality := fs.Int("quality", a.cfg.Quality, "JPEG quality (1-100)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *out == "" {
		return fmt.Errorf("usage: encode -out image.jpg [-quality q] input.rgbf")
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	frames, err := rawframe.New(rawframe.Options{Level: a.cfg.RawFrame.Level})
	if err != nil {
		return err
	}
	defer frames.Close()

	img, err := frames.Unmarshal(raw)
	if err != nil {
		return errors.Wrap(err, fs.Arg(0))
	}

	enc, err := a.encoder(*quality)
	if err != nil {
		return err
	}
	data, err := enc.Encode(img)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "%s: %v -> %s (%d bytes, quality %d)\n", fs.Arg(0), img.Size(), *out, len(data), *quality)
	return nil
}

// roundtrip decodes, re-encodes and decodes every input, and reports size
// agreement and fidelity.
func (a *app) roundtrip(args []string) error {
	fs := a.newFlagSet("roundtrip")
	quality := fs.Int("quality", a.cfg.Quality, "JPEG quality (1-100)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	files, err := loadInputs(fs.Args())
	if err != nil {
		return err
	}

	dec, err := a.decoder()
	if err != nil {
		return err
	}
	enc, err := a.encoder(*quality)
	if err != nil {
		return err
	}

	failed := 0
	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tSIZE\tIN\tOUT\tPSNR\tSTATUS")
	for _, f := range files {
		src, err := dec.Decode(f.Data)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%s\t\t%d\t\t\t%v\n", f.Path, len(f.Data), err)
			continue
		}
		data, err := enc.Encode(src)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%s\t%v\t%d\t\t\t%v\n", f.Path, src.Size(), len(f.Data), err)
			continue
		}
		out, err := dec.Decode(data)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%s\t%v\t%d\t%d\t\t%v\n", f.Path, src.Size(), len(f.Data), len(data), err)
			continue
		}

		status := "ok"
		psnr, err := images.PSNR(src, out)
		if err != nil {
			failed++
			status = err.Error()
		}
		fmt.Fprintf(w, "%s\t%v\t%d\t%d\t%.2f\t%s\n", f.Path, src.Size(), len(f.Data), len(data), psnr, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

// bench times decode and encode of every input.
func (a *app) bench(args []string) error {
	fs := a.newFlagSet("bench")
	iterations := fs.Int("iterations", a.cfg.Bench.Iterations, "Measured runs per file")
	warmup := fs.Int("warmup", a.cfg.Bench.Warmup, "Discarded runs per file")
	quality := fs.Int("quality", a.cfg.Quality, "JPEG quality (1-100)")
	synthetic := fs.String("synthetic", "", "Benchmark a generated frame of this size (WxH or alias such as 1080p) instead of files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *iterations <= 0 || *warmup < 0 {
		return fmt.Errorf("iterations must be positive and warmup non-negative")
	}

	dec, err := a.decoder()
	if err != nil {
		return err
	}
	enc, err := a.encoder(*quality)
	if err != nil {
		return err
	}

	var files []util.JPEGFile
	if *synthetic != "" {
		size, err := images.ParseSize(*synthetic)
		if err != nil {
			return err
		}
		data, err := enc.Encode(syntheticFrame(size))
		if err != nil {
			return err
		}
		files = []util.JPEGFile{{Path: "synthetic-" + size.String(), Data: data, Frame: -1}}
	} else if files, err = loadInputs(fs.Args()); err != nil {
		return err
	}

	p := profiler.New(profiler.Options{Logger: a.logger})
	for _, f := range files {
		for i := 0; i < *warmup+*iterations; i++ {
			measured := i >= *warmup

			start := time.Now()
			img, err := dec.Decode(f.Data)
			if measured {
				p.RecordOperation("decode", time.Since(start), err)
			}
			if err != nil {
				a.logger.Warn("skipping file", zap.String("path", f.Path), zap.Error(err))
				break
			}

			start = time.Now()
			data, err := enc.Encode(img)
			if measured {
				p.RecordOperation("encode", time.Since(start), err)
				if err == nil {
					p.RecordMetric("encoded_bytes", float64(len(data)))
					p.RecordMetric("megapixels", float64(img.Size().Area())/1e6)
				}
			}
		}
	}

	s := p.Snapshot()
	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "backend: %s  files: %d  iterations: %d\n", a.backend.Name(), len(files), *iterations)
	fmt.Fprintln(w, "OPERATION\tCOUNT\tFAILURES\tMEAN\tP50\tP95\tMIN\tMAX")
	for _, op := range s.Operations {
		fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%v\t%v\t%v\t%v\n", op.Name, op.Count, op.Failures,
			op.Mean.Truncate(time.Microsecond), op.P50.Truncate(time.Microsecond), op.P95.Truncate(time.Microsecond),
			op.Min.Truncate(time.Microsecond), op.Max.Truncate(time.Microsecond))
	}
	for _, m := range s.Metrics {
		fmt.Fprintf(w, "%s\tmean=%.2f\tmin=%.2f\tmax=%.2f\n", m.Name, m.Mean, m.Min, m.Max)
	}
	p.Report()
	return w.Flush()
}

// syntheticFrame renders a gradient with a noise overlay, which compresses
// roughly like camera footage.
func syntheticFrame(size images.ImageSize) *images.Image {
	img, _ := images.NewImageZeros(size)
	seed := uint32(size.Area())
	for y := 0; y < size.Height; y++ {
		row := img.Row(y)
		for x := 0; x < size.Width; x++ {
			seed = seed*1664525 + 1013904223
			n := int(seed>>28) - 8
			row[x*3] = clamp(x*255/size.Width + n)
			row[x*3+1] = clamp(y*255/size.Height + n)
			row[x*3+2] = clamp((x+y)*255/(size.Width+size.Height) + n)
		}
	}
	return img
}

func clamp(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}

// loadInputs reads every JPEG named by paths, expanding directories.
func loadInputs(paths []string) ([]util.JPEGFile, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input files")
	}

	var files []util.JPEGFile
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			loaded, err := util.LoadDirectoryJPEGFiles(path)
			if err != nil {
				return nil, err
			}
			files = append(files, loaded...)
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, util.JPEGFile{Path: path, Data: data, Frame: util.FrameNumber(path)})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no JPEG files in %v", paths)
	}
	return files, nil
}
