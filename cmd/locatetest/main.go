// Command locatetest runs the element locator against a screenshot file and
// prints the result. Useful for tuning thresholds against a new UI theme
// without driving the full agent.
package main

import (
	"flag"
	"fmt"
	"os"

	"gocv.io/x/gocv"

	"remotehands/internal/config"
	"remotehands/internal/locate"
	"remotehands/internal/template"
)

func main() {
	screenPath := flag.String("screen", "", "Path to screenshot image")
	element := flag.String("element", "", "Template name to locate")
	templates := flag.String("templates", "templates", "Template image directory")
	configPath := flag.String("config", "", "Optional JSON config file for tuned parameters")
	index := flag.Int("index", 0, "Occurrence index")
	all := flag.Bool("all", false, "List every occurrence instead of one")
	flag.Parse()

	if *screenPath == "" || *element == "" {
		fmt.Println("Usage: locatetest -screen <path> -element <name> [-templates dir] [-index n] [-all]")
		os.Exit(1)
	}

	params := locate.DefaultParams()
	upscaleBelow := 0
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		params = cfg.Locate
		upscaleBelow = cfg.UpscaleBelow
	}

	screen := gocv.IMRead(*screenPath, gocv.IMReadColor)
	if screen.Empty() {
		fmt.Fprintf(os.Stderr, "Failed to decode screenshot: %s\n", *screenPath)
		os.Exit(1)
	}
	defer screen.Close()
	fmt.Printf("Loaded screenshot: %dx%d pixels\n", screen.Cols(), screen.Rows())

	store := template.NewStore(*templates, upscaleBelow)
	defer store.Close()

	locator := locate.NewLocator(store, params, nil)

	fmt.Printf("\nMatching parameters:\n")
	fmt.Printf("  Scales: %.2f - %.2f step %.2f\n", params.MinScale, params.MaxScale, params.ScaleStep)
	fmt.Printf("  Fusion weights: color %.2f, edge %.2f, threshold %.2f\n",
		params.ColorWeight, params.EdgeWeight, params.ThresholdWeight)
	fmt.Printf("  Floors: correlation %.2f, edge %.2f, multi %.2f\n",
		params.CorrelationFloor, params.EdgeFloor, params.MultiThreshold)

	if *all {
		set, err := locator.FindAll(*element, screen)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Find failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nFound %d occurrence(s):\n", len(set))
		for i, m := range set {
			fmt.Printf("  [%d] (%d, %d) score %.3f\n", i, m.X, m.Y, m.Score)
		}
		return
	}

	match, found, err := locator.Locate(*element, screen, *index)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Locate failed: %v\n", err)
		os.Exit(1)
	}
	if !found {
		fmt.Printf("\nElement %q not found\n", *element)
		os.Exit(2)
	}
	fmt.Printf("\nFound %q at (%d, %d) via %s, score %.3f\n",
		*element, match.X, match.Y, match.Method, match.Score)
}
