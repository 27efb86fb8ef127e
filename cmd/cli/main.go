package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"adlens/adapters/excel"
	"adlens/domain/campaign"
	"adlens/domain/causal"
	"adlens/internal/engine"
	"adlens/internal/knowledge"
	"adlens/internal/report"
)

func main() {
	file := flag.String("file", "", "input XLSX/CSV file with campaign rows")
	metricsFlag := flag.String("metrics", "ROAS", "comma-separated metrics to analyze")
	dateCol := flag.String("date-col", campaign.ColDate, "date column name")
	split := flag.String("split", "", "explicit split date (YYYY-MM-DD, default midpoint)")
	lookback := flag.Int("lookback", 30, "lookback window in days on each side of the split")
	method := flag.String("method", string(causal.MethodHybrid), "decomposition method")
	noML := flag.Bool("no-ml", false, "skip the driver-analysis pass")
	asJSON := flag.Bool("json", false, "emit JSON instead of a markdown report")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: cli -file data.xlsx -metrics ROAS,CPA")
		os.Exit(2)
	}

	table, err := excel.NewDataReader(*file).Read()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error reading data:", err)
		os.Exit(1)
	}

	var metricNames []string
	for _, m := range strings.Split(*metricsFlag, ",") {
		if m = strings.TrimSpace(m); m != "" {
			metricNames = append(metricNames, m)
		}
	}
	if len(metricNames) == 0 {
		fmt.Fprintln(os.Stderr, "no metrics requested")
		os.Exit(2)
	}

	e := engine.New(knowledge.NewStaticBase())
	opts := causal.DefaultOptions()
	opts.SplitDate = *split
	opts.LookbackDays = *lookback
	opts.Method = causal.Method(*method)
	opts.IncludeML = !*noML

	// Each Analyze call is independent, so metrics fan out concurrently.
	results := make(map[string]*causal.Result, len(metricNames))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(context.Background())
	for _, name := range metricNames {
		g.Go(func() error {
			res := e.Analyze(ctx, table, campaign.ParseMetric(name), *dateCol, opts)
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	// Analyze is fail-soft, so the group never errors; Wait just joins.
	_ = g.Wait()

	sort.Strings(metricNames)
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		ordered := make([]*causal.Result, 0, len(metricNames))
		for _, name := range metricNames {
			ordered = append(ordered, results[name])
		}
		if err := enc.Encode(ordered); err != nil {
			fmt.Fprintln(os.Stderr, "error encoding results:", err)
			os.Exit(1)
		}
		return
	}

	for _, name := range metricNames {
		fmt.Println(report.RenderMarkdown(results[name]))
	}
}
