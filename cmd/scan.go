package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wpsleuth/wpsleuth/pkg/types"
	"github.com/wpsleuth/wpsleuth/pkg/wpscan"
)

var scanJSON bool

var scanCmd = &cobra.Command{
	Use:   "scan <url> [url...]",
	Short: "Scan one or more sites for WordPress and known vulnerabilities",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadAdvisories()
		if err != nil {
			return err
		}
		scanner := wpscan.NewScanner(cfg.Scanner, cfg.Advisories, store, log)

		var (
			mu      sync.Mutex
			results = make([]*types.ScanResult, 0, len(args))
		)

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(cfg.Scanner.Concurrency)
		for _, target := range args {
			g.Go(func() error {
				result, err := scanner.Scan(ctx, target)
				if err != nil {
					return fmt.Errorf("%s: %w", target, err)
				}
				mu.Lock()
				results = append(results, result)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		// Scans finish in arbitrary order; report in request order.
		order := make(map[string]int, len(args))
		for i, target := range args {
			if normalized, err := wpscan.NormalizeTarget(target); err == nil {
				order[normalized] = i
			}
		}
		sort.SliceStable(results, func(i, j int) bool {
			return order[results[i].URL] < order[results[j].URL]
		})

		if scanJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if len(results) == 1 {
				return enc.Encode(results[0])
			}
			return enc.Encode(results)
		}

		for _, result := range results {
			printResult(result)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "emit results as JSON")
	rootCmd.AddCommand(scanCmd)
}

func printResult(result *types.ScanResult) {
	color.Cyan("\n%s", result.URL)
	color.White("Scanned at %s in %dms\n", result.ScannedAt.Format("2006-01-02 15:04:05 MST"), result.ScanDurationMs)

	if !result.IsWordPress {
		color.Yellow("Not identified as WordPress (confidence %d%%)", result.DetectionConfidence)
		for _, line := range result.Security {
			fmt.Printf("  %s\n", line)
		}
		return
	}

	color.Green("WordPress detected (confidence %d%%)", result.DetectionConfidence)
	riskColor(result.RiskScore)("Risk score: %d/100  (%d vulnerabilities)\n",
		result.RiskScore, result.TotalVulnerabilities)

	printComponent("Core", result.Core)
	if len(result.Plugins) > 0 {
		color.White("\nPlugins:")
		for _, p := range result.Plugins {
			printComponent("  "+p.Name, p)
		}
	}
	if len(result.Themes) > 0 {
		color.White("\nThemes:")
		for _, t := range result.Themes {
			printComponent("  "+t.Name, t)
		}
	}

	color.White("\nSecurity checklist:")
	for _, line := range result.Security {
		fmt.Printf("  %s\n", line)
	}
}

func printComponent(label string, report types.ComponentReport) {
	line := fmt.Sprintf("%s %s [%s]", label, report.Version, report.Status)
	switch report.Status {
	case types.StatusVulnerable:
		color.Red("%s (%d findings)", line, report.Vulnerabilities)
		for _, f := range report.Findings {
			detail := fmt.Sprintf("    - [%s] %s", f.Severity, f.Title)
			if f.CVEID != "" {
				detail += " (" + f.CVEID + ")"
			}
			fmt.Println(detail)
		}
	case types.StatusOutdated:
		color.Yellow("%s (latest: %s)", line, report.LatestVersion)
	default:
		color.Green("%s", line)
	}
}

func riskColor(score int) func(format string, a ...interface{}) {
	switch {
	case score >= 70:
		return color.Red
	case score >= 30:
		return color.Yellow
	default:
		return color.Green
	}
}
