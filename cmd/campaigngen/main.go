package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"adlens/adapters/excel"
	"adlens/internal/testkit"
)

func main() {
	out := flag.String("out", "campaign_performance.xlsx", "output file path")
	days := flag.Int("days", 60, "number of days to generate")
	seed := flag.Int64("seed", 42, "RNG seed (deterministic)")
	start := flag.String("start", "2025-01-01", "start date (YYYY-MM-DD)")
	format := flag.String("format", "", "output format: xlsx or csv (default inferred from -out)")
	cvrShift := flag.Float64("cvr-shift", 0.7, "conversion-rate multiplier applied after the midpoint")
	spendShift := flag.Float64("spend-shift", 1.0, "spend multiplier applied after the midpoint")
	flag.Parse()

	if *days <= 0 {
		fmt.Fprintln(os.Stderr, "days must be > 0")
		os.Exit(2)
	}
	startDate, err := time.ParseInLocation("2006-01-02", *start, time.UTC)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid -start (expected YYYY-MM-DD):", err)
		os.Exit(2)
	}

	fmtName := strings.ToLower(strings.TrimSpace(*format))
	if fmtName == "" {
		if strings.ToLower(filepath.Ext(*out)) == ".csv" {
			fmtName = "csv"
		} else {
			fmtName = "xlsx"
		}
	}

	cfg := testkit.DefaultCampaignConfig()
	cfg.Days = *days
	cfg.Seed = *seed
	cfg.StartDate = startDate
	cfg.CVRShift = *cvrShift
	cfg.SpendShift = *spendShift

	headers, rows := testkit.NewCampaignGenerator(cfg).Records()

	switch fmtName {
	case "csv":
		err = excel.WriteCSV(*out, headers, rows)
	case "xlsx":
		err = excel.WriteXLSX(*out, headers, rows)
	default:
		fmt.Fprintln(os.Stderr, "unsupported format:", fmtName)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error writing dataset:", err)
		os.Exit(1)
	}

	fmt.Println("Synthetic campaign dataset written:", excel.Describe(*out, headers, rows))
}
