//go:build cgo && !no_opencv

// Command capture grabs frames from a video device or file with OpenCV and
// writes them as JPEG files through jpeg.Encoder.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-jpeg/config"
	"github.com/nvr-ai/go-jpeg/images"
	"github.com/nvr-ai/go-jpeg/jpeg"
	"github.com/nvr-ai/go-jpeg/profiler"
	"github.com/nvr-ai/go-jpeg/util"
)

const (
	// DefaultOutputDir is where frames are written unless -out is given.
	DefaultOutputDir = "frames"
	// DefaultFrames is the number of frames captured unless -frames is given.
	DefaultFrames = 100
)

func main() {
	var (
		deviceID   int
		videoPath  string
		outputDir  string
		frames     int
		quality    int
		every      int
		configPath string
		sizeFlag   string
	)
	flag.IntVar(&deviceID, "device", 0, "Video capture device ID")
	flag.StringVar(&videoPath, "video", "", "Path to a video file instead of a device")
	flag.StringVar(&outputDir, "out", DefaultOutputDir, "Output directory for JPEG frames")
	flag.IntVar(&frames, "frames", DefaultFrames, "Number of frames to write (0 for unlimited)")
	flag.IntVar(&quality, "quality", 0, "JPEG quality (1-100, default from config)")
	flag.IntVar(&every, "every", 1, "Write every n-th frame")
	flag.StringVar(&configPath, "config", "", "Path to YAML configuration file")
	flag.StringVar(&sizeFlag, "size", "", "Resize frames to WxH or a resolution alias such as 720p")
	flag.Parse()

	cfg := config.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if quality == 0 {
		quality = cfg.Quality
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if every < 1 {
		logger.Fatal("-every must be at least 1", zap.Int("every", every))
	}

	var target images.ImageSize
	if sizeFlag != "" {
		if target, err = images.ParseSize(sizeFlag); err != nil {
			logger.Fatal("parse -size", zap.String("size", sizeFlag), zap.Error(err))
		}
	}

	backend, err := cfg.CodecBackend()
	if err != nil {
		logger.Fatal("resolve backend", zap.Error(err))
	}
	enc, err := jpeg.NewEncoder(jpeg.WithBackend(backend), jpeg.WithLogger(logger), jpeg.WithQuality(quality))
	if err != nil {
		logger.Fatal("create encoder", zap.Error(err))
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		logger.Fatal("create output directory", zap.String("dir", outputDir), zap.Error(err))
	}

	var capture *gocv.VideoCapture
	if videoPath != "" {
		capture, err = gocv.OpenVideoCapture(videoPath)
	} else {
		capture, err = gocv.OpenVideoCapture(deviceID)
	}
	if err != nil {
		logger.Fatal("open capture", zap.Int("device", deviceID), zap.String("video", videoPath), zap.Error(err))
	}
	defer capture.Close()

	p := profiler.New(profiler.Options{Logger: logger, ReportInterval: 5 * time.Second})
	p.Start()
	defer p.Stop()

	mat := gocv.NewMat()
	defer mat.Close()

	logger.Info("capturing", zap.String("out", outputDir), zap.Int("quality", quality), zap.String("backend", enc.Backend()))

	read, written := 0, 0
	for frames == 0 || written < frames {
		if ok := capture.Read(&mat); !ok {
			logger.Info("capture ended", zap.Int("read", read))
			break
		}
		if mat.Empty() {
			continue
		}
		read++
		if (read-1)%every != 0 {
			continue
		}

		img, err := matToImage(mat)
		if err != nil {
			logger.Warn("convert frame", zap.Int("frame", read), zap.Error(err))
			continue
		}
		if target.Area() > 0 && img.Size() != target {
			if img, err = img.Resize(target, images.BilinearFilter); err != nil {
				logger.Warn("resize frame", zap.Int("frame", read), zap.Error(err))
				continue
			}
		}

		done := p.StartOperation("encode")
		data, err := enc.Encode(img)
		done(err)
		if err != nil {
			logger.Warn("encode frame", zap.Int("frame", read), zap.Error(err))
			continue
		}
		p.RecordMetric("encoded_bytes", float64(len(data)))

		path := filepath.Join(outputDir, util.FrameName(written))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			logger.Fatal("write frame", zap.String("path", path), zap.Error(err))
		}
		written++
	}

	p.Report()
	logger.Info("done", zap.Int("read", read), zap.Int("written", written))
}

// matToImage converts an 8-bit BGR Mat into an RGB image.
func matToImage(mat gocv.Mat) (*images.Image, error) {
	if mat.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("unsupported mat type %v", mat.Type())
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(mat, &rgb, gocv.ColorBGRToRGB)

	// ToBytes copies, so the image owns its pixels after rgb is closed.
	return images.NewImage(images.ImageSize{Width: rgb.Cols(), Height: rgb.Rows()}, rgb.ToBytes())
}
