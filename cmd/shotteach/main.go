// Command shotteach teaches the location knowledge base from labeled
// folders. Each sub-folder whose name mentions a hospital (ELSH, Sandy,
// Paleto, in Latin or Cyrillic) contributes its images as samples.
//
// Usage: shotteach [options] <folder>
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"shot-sorter/internal/analyzer"
	"shot-sorter/internal/config"
	"shot-sorter/internal/diag"
	"shot-sorter/internal/image"
	"shot-sorter/internal/location"
)

var (
	flagSettings = flag.String("settings", "", "Settings file")
	flagDataDir  = flag.String("data", "", "Data directory override")
	flagReset    = flag.Bool("reset", false, "Clear the location knowledge base before teaching")
	flagDryRun   = flag.Bool("n", false, "List what would be taught without changing anything")
	flagVerbose  = flag.Bool("v", false, "Verbose diagnostic logging")
)

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <folder>\n", os.Args[0])
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

	plan, err := scan(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(plan) == 0 {
		fmt.Println("No labeled sub-folders found (expected names containing ELSH, Sandy or Paleto).")
		os.Exit(1)
	}

	locs := make([]location.Location, 0, len(plan))
	for loc := range plan {
		locs = append(locs, loc)
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i] < locs[j] })

	for _, loc := range locs {
		fmt.Printf("%s: %d files\n", loc, len(plan[loc]))
	}
	if *flagDryRun {
		return
	}

	os.Exit(teach(settings, locs, plan, *flagReset))
}

// teach adds every planned file to the location knowledge base and returns
// the exit code.
func teach(settings config.Settings, locs []location.Location, plan map[location.Location][]string, reset bool) int {
	// Teaching needs features only; no OCR engine is opened.
	settings.OCREngines = nil
	env := analyzer.OpenEnvironment(settings)
	defer env.Close()

	if reset {
		if err := env.LocationKB.Reset(); err != nil {
			fmt.Fprintf(os.Stderr, "Error resetting knowledge base: %v\n", err)
			return 1
		}
		fmt.Println("Knowledge base cleared.")
	}

	added, failed := 0, 0
	for _, loc := range locs {
		for _, path := range plan[loc] {
			if _, err := env.Analyzer.Teach(path, loc); err != nil {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", filepath.Base(path), err)
				failed++
				continue
			}
			added++
		}
	}

	fmt.Printf("\nAdded %d samples (%d failed). Knowledge base now holds %d samples:\n",
		added, failed, env.LocationKB.SampleCount())
	counts := env.LocationKB.LocationCounts()
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-8s %d\n", k, counts[k])
	}
	return 0
}

// scan maps each recognizable sub-folder to its images.
func scan(root string) (map[location.Location][]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	plan := make(map[location.Location][]string)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		loc := location.FromFolder(e.Name())
		if loc == location.Unknown {
			fmt.Printf("Skipping folder %q: no hospital in name\n", e.Name())
			continue
		}
		dir := filepath.Join(root, e.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if !f.IsDir() && image.IsSupportedFormat(f.Name()) {
				plan[loc] = append(plan[loc], filepath.Join(dir, f.Name()))
			}
		}
	}
	for _, files := range plan {
		sort.Strings(files)
	}
	return plan, nil
}
