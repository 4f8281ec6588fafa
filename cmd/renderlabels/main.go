package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	golabel "github.com/LabelDataChat/GoLabel"
)

func main() {
	var (
		templatePath = flag.String("template", "", "template definition JSON file")
		dataPath     = flag.String("data", "", "CSV file of data rows (first row is headers)")
		outDir       = flag.String("out", "labels", "output directory")
		pattern      = flag.String("pattern", "label_%04d.png", "output filename pattern, %d is the 1-based row number")
		fontDir      = flag.String("font-dir", "", "additional font directory")
		jpegOut      = flag.Bool("jpeg", false, "write JPEG instead of PNG")
		quality      = flag.Int("quality", 90, "JPEG quality (1-100)")
		verbose      = flag.Bool("verbose", false, "log extraction fallbacks and skipped components")
	)
	flag.Parse()

	if *templatePath == "" || *dataPath == "" {
		fmt.Fprintln(os.Stderr, "usage: renderlabels -template design.json -data rows.csv [-out dir]")
		os.Exit(2)
	}

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			os.Exit(1)
		}
		logger = l
		defer logger.Sync()
	}

	tf, err := os.Open(*templatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open template: %v\n", err)
		os.Exit(1)
	}
	template, err := golabel.DecodeTemplate(tf)
	tf.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "template %s: %v\n", *templatePath, err)
		os.Exit(1)
	}

	rows, err := readRows(*dataPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read data: %v\n", err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "no data rows found")
		os.Exit(1)
	}

	opts := golabel.DefaultRenderOptions()
	opts.Logger = logger
	opts.PeriodicGC = true
	if *fontDir != "" {
		opts.FontDirs = []string{*fontDir}
	}
	if *jpegOut {
		opts.Format = golabel.ImageFormatJPEG
		opts.JPEGQuality = *quality
	}

	renderer, err := golabel.NewTemplateRenderer(template, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "template %s: %v\n", *templatePath, err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}

	failed := 0
	for i, row := range rows {
		path := filepath.Join(*outDir, fmt.Sprintf(*pattern, i+1))
		if err := renderer.RenderToFile(row, path); err != nil {
			fmt.Fprintf(os.Stderr, "generation failed for row %d: %v\n", i+1, err)
			failed++
		}
	}

	fmt.Printf("Rendered %d labels to %s (%d failed)\n", len(rows)-failed, *outDir, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// readRows reads a CSV file into one map per data row, keyed by the header
// row. Short records are tolerated; missing cells resolve to empty strings.
func readRows(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	headers := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
