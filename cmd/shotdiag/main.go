// Command shotdiag runs a single screenshot through the classifier with
// tracing enabled and prints every decision.
//
// Usage: shotdiag [options] <image>
package main

import (
	"flag"
	"fmt"
	"os"

	"shot-sorter/internal/analyzer"
	"shot-sorter/internal/config"
	"shot-sorter/internal/location"
)

var (
	flagSettings  = flag.String("settings", "", "Settings file")
	flagDataDir   = flag.String("data", "", "Data directory override")
	flagNoBodycam = flag.Bool("no-bodycam", false, "Do not require a body camera")
	flagFeatures  = flag.Bool("features", false, "Print the feature vector")
	flagTeach     = flag.String("teach", "", "Teach the file as this location (ELSH, Sandy, Paleto)")
)

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <image>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	path := flag.Arg(0)

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

	os.Exit(diagnose(settings, path))
}

// diagnose runs one file with tracing and returns the exit code.
func diagnose(settings config.Settings, path string) int {
	env := analyzer.OpenEnvironment(settings)
	defer env.Close()

	fmt.Printf("OCR engine: %s\n", env.Engine.Name())
	fmt.Printf("Knowledge base: %d location samples, %d trigger samples\n\n",
		env.LocationKB.SampleCount(), env.TriggerKB.LabeledCount())

	r := env.Analyzer.RunWithOptions(path, analyzer.Options{Diagnose: true})
	for _, line := range r.Trace {
		fmt.Println(line)
	}

	fmt.Println()
	fmt.Printf("Body camera: %v (ratio %.4f, inherited %v)\n", r.Bodycam, r.BodycamRatio, r.Inherited)
	for _, t := range r.Texts {
		fmt.Printf("Text: %q\n", t)
	}
	if r.OK {
		fmt.Printf("Category:   %s\n", r.Category)
		fmt.Printf("Location:   %s (%s, %.3f)\n", r.Location.Key(), r.Method, r.Confidence)
		fmt.Printf("Night:      %v\n", r.Night)
		fmt.Printf("Folder:     %s\n", r.Folder())
	} else {
		fmt.Printf("Not classified: %s\n", r.Err)
	}

	if *flagFeatures && r.Features != nil {
		fmt.Println("\nFeatures:")
		for _, k := range r.Features.Keys() {
			fmt.Printf("  %-20s %.6f\n", k, r.Features[k])
		}
	}

	if *flagTeach != "" {
		loc := location.FromKey(*flagTeach)
		if loc == location.Unknown {
			loc = location.FromFolder(*flagTeach)
		}
		if _, err := env.Analyzer.Teach(path, loc); err != nil {
			fmt.Fprintf(os.Stderr, "Error teaching: %v\n", err)
			return 1
		}
		fmt.Printf("\nTaught as %s. Knowledge base now holds %d samples.\n", loc, env.LocationKB.SampleCount())
	}
	return 0
}
