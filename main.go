// Command shot-sorter classifies screenshots into service folders. It prints
// the folder each file belongs in and never moves anything.
//
// Usage: shot-sorter [options] <dir|file>...
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"shot-sorter/internal/analyzer"
	"shot-sorter/internal/batch"
	"shot-sorter/internal/config"
	"shot-sorter/internal/diag"
	"shot-sorter/internal/image"
	"shot-sorter/internal/version"
)

var (
	flagSettings  = flag.String("settings", "", "Settings file (default: shotsort.yaml in data dir or working dir)")
	flagDataDir   = flag.String("data", "", "Data directory override")
	flagNoBodycam = flag.Bool("no-bodycam", false, "Do not require a body camera")
	flagVerbose   = flag.Bool("v", false, "Verbose diagnostic logging")
	flagJSON      = flag.String("json", "", "Write the run summary to this JSON file")
	flagVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags)

	if *flagVersion {
		fmt.Println("shot-sorter", version.String())
		return
	}
	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <dir|file>...\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	if !*flagVerbose {
		diag.SetLogger(nil)
	}

	settings, err := config.LoadSettings(*flagSettings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		os.Exit(1)
	}
	if *flagDataDir != "" {
		settings.DataDir = *flagDataDir
	}
	if *flagNoBodycam {
		settings.RequireBodycam = false
	}

	files, err := collectFiles(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Println("No supported images found.")
		return
	}

	os.Exit(run(settings, files, *flagJSON))
}

// run classifies files and returns the process exit code. Stores are flushed
// before it returns, whatever the outcome.
func run(settings config.Settings, files []string, jsonPath string, opts ...analyzer.Option) int {
	pre := image.NewPreloader(settings.PreloadDepth, settings.PreloadWorkers, nil)
	defer pre.Close()

	env := analyzer.OpenEnvironment(settings, append([]analyzer.Option{analyzer.WithLoader(pre.Get)}, opts...)...)
	defer func() {
		if err := env.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}()
	fmt.Printf("OCR engine: %s\n", env.Engine.Name())
	fmt.Printf("Classifying %d files...\n\n", len(files))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := batch.New(env.Analyzer, pre)
	runner.On(batch.EventFileDone, func(data interface{}) {
		printOutcome(data.(batch.Outcome))
	})
	runner.On(batch.EventSecondPass, func(data interface{}) {
		fmt.Printf("\nSecond pass (body camera): %d files\n", data.(int))
	})

	sum := runner.Run(ctx, files)
	printSummary(sum)

	if jsonPath != "" {
		if err := writeSummary(jsonPath, sum); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			return 1
		}
		fmt.Printf("\nSummary written to: %s\n", jsonPath)
	}
	return 0
}

// collectFiles expands directories into their supported images, sorted by
// name. Explicit files are kept as given.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var dir []string
		for _, e := range entries {
			if !e.IsDir() && image.IsSupportedFormat(e.Name()) {
				dir = append(dir, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(dir)
		files = append(files, dir...)
	}
	return files, nil
}

func printOutcome(o batch.Outcome) {
	name := filepath.Base(o.Path)
	switch {
	case o.Err != nil:
		fmt.Printf("  ERR  %s: %v\n", name, o.Err)
	case o.Result.OK:
		fmt.Printf("  OK   [%s] %s -> %s\n", o.Result.Method, name, o.Result.Folder())
	case o.Pass == 1 && o.Result.Err == analyzer.ReasonNoBodycam:
		// retried in the second pass
	default:
		fmt.Printf("  SKIP %s: %s\n", name, o.Result.Err)
	}
}

func printSummary(s batch.Summary) {
	fmt.Println()
	fmt.Printf("Done: ok=%d skipped=%d no-bodycam=%d errors=%d total=%d (%.1fs)\n",
		s.OK, s.Skipped, s.NoBodycam, s.Errors, s.Total, s.Duration.Seconds())
	if s.Stopped {
		fmt.Println("Stopped before all files were processed.")
	}
	if hist := s.Histogram(); len(hist) > 0 {
		fmt.Println("By folder:")
		for _, fc := range hist {
			fmt.Printf("  %-40s %d\n", fc.Folder, fc.Count)
		}
	}
	if s.Processed > 0 {
		fmt.Printf("Speed: %.0fms/file\n", float64(s.Duration.Milliseconds())/float64(s.Processed))
	}
}

type summaryFile struct {
	RunID     string         `json:"run_id"`
	Total     int            `json:"total"`
	OK        int            `json:"ok"`
	Skipped   int            `json:"skipped"`
	NoBodycam int            `json:"no_bodycam"`
	Errors    int            `json:"errors"`
	Stopped   bool           `json:"stopped"`
	Folders   map[string]int `json:"folders"`
	Files     []fileEntry    `json:"files"`
}

type fileEntry struct {
	Path   string `json:"path"`
	Folder string `json:"folder,omitempty"`
	Method string `json:"method,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func writeSummary(path string, s batch.Summary) error {
	out := summaryFile{
		RunID:     s.RunID,
		Total:     s.Total,
		OK:        s.OK,
		Skipped:   s.Skipped,
		NoBodycam: s.NoBodycam,
		Errors:    s.Errors,
		Stopped:   s.Stopped,
		Folders:   s.Folders,
	}
	for _, o := range s.Outcomes {
		e := fileEntry{Path: o.Path, Method: o.Result.Method, Reason: o.Result.Err}
		if o.Err != nil {
			e.Reason = o.Err.Error()
		}
		if o.Result.OK {
			e.Folder = o.Result.Folder()
		}
		out.Files = append(out.Files, e)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
