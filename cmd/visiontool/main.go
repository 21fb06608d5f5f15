package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jordanella.com/autovision/internal/async"
	"jordanella.com/autovision/internal/capture"
	"jordanella.com/autovision/internal/config"
	"jordanella.com/autovision/internal/cv"
	"jordanella.com/autovision/internal/events"
	"jordanella.com/autovision/internal/logging"
	"jordanella.com/autovision/internal/ocr"
	"jordanella.com/autovision/internal/vision"
	"jordanella.com/autovision/pkg/templates"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: visiontool <command> [flags]

Commands:
  grab    Capture the screen (or a region) and save it as PNG
  find    Search the screen for a registered template or a needle image
  read    Recognize text in an image file
  words   Recognize words with confidences and bounds in an image file
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	settings, err := config.LoadFromINI("Settings.ini")
	if err != nil {
		settings = config.NewDefaultSettings()
	}

	switch os.Args[1] {
	case "grab":
		runGrab(os.Args[2:], settings)
	case "find":
		runFind(os.Args[2:], settings)
	case "read":
		runRead(os.Args[2:], settings)
	case "words":
		runWords(os.Args[2:], settings)
	default:
		usage()
	}
}

// newVision builds a facade wired from the INI settings. The returned
// cleanup releases the event logger and bus when logging is enabled.
func newVision(settings *config.Settings, extra ...vision.Option) (*vision.Vision, func()) {
	provider, err := capture.NewDisplayProvider(settings.DisplayIndex)
	if err != nil {
		log.Fatalf("Failed to open display %d: %v", settings.DisplayIndex, err)
	}

	engine := cv.NewKernelEngine(
		cv.WithMethod(parseMethod(settings.Method)),
		cv.WithMaxCandidates(settings.MaxCandidates),
	)

	var ocrOpts []ocr.TesseractOption
	if settings.TessdataPrefix != "" {
		ocrOpts = append(ocrOpts, ocr.WithTessdataPrefix(settings.TessdataPrefix))
	}

	logger := logging.NewLogger("vision").SetMinLevel(logging.LogLevel(settings.LogLevel))

	opts := []vision.Option{
		vision.WithProvider(provider),
		vision.WithFinder(cv.NewFinder(engine)),
		vision.WithReader(ocr.NewReader(ocr.NewTesseractEngine(ocrOpts...))),
		vision.WithLogger(logger),
	}

	cleanup := func() {}
	if settings.LoggingEnabled {
		bus := events.NewBus(64)
		eventLog, err := logging.NewEventLogger(bus, settings.LogDir)
		if err != nil {
			log.Printf("Warning: event logging disabled: %v", err)
			bus.Stop()
		} else {
			opts = append(opts, vision.WithBus(bus))
			cleanup = func() {
				eventLog.Close()
				bus.Stop()
			}
		}
	}

	opts = append(opts, extra...)

	v, err := vision.New(opts...)
	if err != nil {
		cleanup()
		log.Fatalf("Failed to initialize vision: %v", err)
	}
	return v, cleanup
}

func parseMethod(s string) cv.MatchMethod {
	switch strings.ToUpper(s) {
	case "SAD":
		return cv.MatchMethodSAD
	case "NCC":
		return cv.MatchMethodNCC
	default:
		return cv.MatchMethodSSD
	}
}

func runGrab(args []string, settings *config.Settings) {
	fs := flag.NewFlagSet("grab", flag.ExitOnError)
	out := fs.String("out", "", "output file path (default <saveDir>/screen.png)")
	x := fs.Int("x", 0, "region origin x")
	y := fs.Int("y", 0, "region origin y")
	w := fs.Int("w", 0, "region width (0 = full screen)")
	h := fs.Int("h", 0, "region height (0 = full screen)")
	fs.Parse(args)

	if *out == "" {
		*out = filepath.Join(settings.SaveDir, "screen.png")
	}

	v, cleanup := newVision(settings)
	defer cleanup()
	defer v.Close()

	var task *async.Task[*image.RGBA]
	if *w > 0 && *h > 0 {
		task = v.GrabScreenRegion(cv.NewRegion(*x, *y, *w, *h))
	} else {
		task = v.GrabScreen()
	}

	img, err := task.Result()
	if err != nil {
		log.Fatalf("Capture failed: %v", err)
	}

	if err := v.SaveImage(img, *out).Err(); err != nil {
		log.Fatalf("Save failed: %v", err)
	}
	fmt.Printf("Saved %dx%d capture to %s\n", img.Bounds().Dx(), img.Bounds().Dy(), *out)
}

func runFind(args []string, settings *config.Settings) {
	fs := flag.NewFlagSet("find", flag.ExitOnError)
	name := fs.String("template", "", "registered template name")
	needlePath := fs.String("needle", "", "PNG needle image (alternative to -template)")
	min := fs.Float64("min", settings.MinConfidence, "confidence threshold for -needle searches")
	timeout := fs.Duration("wait", 0, "poll until found or timeout (0 = single attempt)")
	fs.Parse(args)

	if (*name == "") == (*needlePath == "") {
		log.Fatal("find requires exactly one of -template or -needle")
	}

	var registryOpt []vision.Option
	var req vision.MatchRequest

	if *needlePath != "" {
		req = vision.MatchRequest{
			Needle:        loadPNG(*needlePath),
			MinConfidence: *min,
		}
	} else {
		registry := templates.NewRegistry(settings.TemplateDir)
		if err := registry.LoadFromDirectory(settings.TemplateDir); err != nil {
			log.Fatalf("Failed to load templates: %v", err)
		}
		registryOpt = append(registryOpt, vision.WithTemplates(registry))

		needle, tmpl, err := registry.Image(*name)
		if err != nil {
			log.Fatalf("Template lookup failed: %v", err)
		}
		req = vision.MatchRequest{
			Needle:        needle,
			MinConfidence: tmpl.Threshold,
		}
		if tmpl.Region != nil {
			req.Region = *tmpl.Region
		}
	}

	v, cleanup := newVision(settings, registryOpt...)
	defer cleanup()
	defer v.Close()

	var task *async.Task[cv.MatchResult]
	if *timeout > 0 {
		task = v.WaitFor(req, *timeout, 100*time.Millisecond)
	} else {
		task = v.FindOnScreenRegion(req)
	}

	result, err := task.Result()
	if err != nil {
		log.Fatalf("Find failed: %v", err)
	}
	fmt.Printf("Found match at (%d,%d) %dx%d with confidence %.3f\n",
		result.Location.X, result.Location.Y,
		result.Location.Width, result.Location.Height, result.Confidence)
}

func runRead(args []string, settings *config.Settings) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	file := fs.String("file", "", "PNG image to recognize")
	lang := fs.String("lang", settings.OCRLanguage, "recognition language")
	fs.Parse(args)

	img := loadPNG(*file)

	v, cleanup := newVision(settings)
	defer cleanup()
	defer v.Close()

	text, err := v.ReadText(img, ocr.Language(*lang)).Result()
	if err != nil {
		log.Fatalf("Recognition failed: %v", err)
	}
	fmt.Println(strings.TrimSpace(text))
}

func runWords(args []string, settings *config.Settings) {
	fs := flag.NewFlagSet("words", flag.ExitOnError)
	file := fs.String("file", "", "PNG image to recognize")
	lang := fs.String("lang", settings.OCRLanguage, "recognition language")
	fs.Parse(args)

	img := loadPNG(*file)

	v, cleanup := newVision(settings)
	defer cleanup()
	defer v.Close()

	words, err := v.ReadWords(img, ocr.Language(*lang)).Result()
	if err != nil {
		log.Fatalf("Recognition failed: %v", err)
	}
	for _, word := range words {
		fmt.Printf("%-24s conf=%.3f bounds=(%d,%d %dx%d)\n",
			word.Text, word.Confidence,
			word.Bounds.X, word.Bounds.Y, word.Bounds.Width, word.Bounds.Height)
	}
}

func loadPNG(path string) *image.RGBA {
	if path == "" {
		log.Fatal("missing image file path")
	}
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		log.Fatalf("Failed to decode %s: %v", path, err)
	}
	return cv.ToRGBA(img)
}
