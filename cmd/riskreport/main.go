package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"auditpulse/internal/config"
	"auditpulse/internal/dataprocessing"
	"auditpulse/internal/exporter"
	"auditpulse/internal/infrastructure"
	"auditpulse/internal/risk"
)

func main() {
	dataPath := flag.String("data", "", "dataset path (defaults to the configured dataset)")
	outputDir := flag.String("out", "", "output directory for the audit list (defaults to the configured reports dir)")
	format := flag.String("format", "csv", "report format: csv or xlsx")
	minScore := flag.Float64("min-score", 0, "only include taxpayers at or above this prediction score")
	quadrant := flag.String("quadrant", "", "only include taxpayers in this risk quadrant")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}

	if *dataPath == "" {
		*dataPath = cfg.Dataset.Path
	}
	if *outputDir == "" {
		*outputDir = cfg.Dataset.ReportsDir
	}

	loader := dataprocessing.NewLoader(logger)
	classifier := risk.NewClassifier(logger)
	store := risk.NewStore(loader.Load, classifier, logger)

	ctx := context.Background()
	session, err := store.Get(ctx, *dataPath)
	if err != nil {
		logger.Error("failed to build session", "path", *dataPath, "error", err)
		os.Exit(1)
	}

	predicates, err := buildPredicates(session, *minScore, *quadrant)
	if err != nil {
		logger.Error("invalid report criteria", "error", err)
		os.Exit(1)
	}
	selected := risk.Filter(session.Records(), predicates)
	summary := risk.Summarize(selected)

	logger.Info("report selection",
		"records", summary.Count,
		"avg_score", summary.AvgScore,
		"total_revenue", summary.TotalRevenue,
		"total_debt", summary.TotalDebt,
		"revenue_threshold", session.RevenueThreshold,
		"high_risk_alert", summary.HighRiskAlert())

	printQuadrantBreakdown(logger, selected)

	var path string
	switch *format {
	case "csv":
		path, err = exporter.NewCSVWriter(*outputDir, logger).WriteAuditList("audit_list.csv", selected)
	case "xlsx":
		path, err = exporter.NewXLSXWriter(*outputDir, logger).WriteAuditList("audit_list.xlsx", selected)
	default:
		logger.Error("unsupported format", "format", *format)
		os.Exit(1)
	}
	if err != nil {
		logger.Error("failed to write report", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Audit list written to %s (%d records)\n", path, summary.Count)
}

func buildPredicates(session *risk.Session, minScore float64, quadrant string) (risk.Predicates, error) {
	p := session.Options().UniversalPredicates()
	p.ScoreRange.Min = minScore

	if quadrant != "" {
		q := risk.Quadrant(quadrant)
		if !q.IsValid() {
			return p, fmt.Errorf("unknown quadrant %q", quadrant)
		}
		p.Quadrants = []risk.Quadrant{q}
	}
	return p, nil
}

func printQuadrantBreakdown(logger *slog.Logger, records []risk.TaxpayerRecord) {
	byQuadrant := make(map[risk.Quadrant][]risk.TaxpayerRecord)
	for _, rec := range records {
		byQuadrant[rec.Quadrant] = append(byQuadrant[rec.Quadrant], rec)
	}

	for _, q := range risk.Quadrants {
		group := byQuadrant[q]
		if len(group) == 0 {
			continue
		}
		s := risk.Summarize(group)
		logger.Info("quadrant breakdown",
			"quadrant", string(q),
			"count", s.Count,
			"avg_score", s.AvgScore,
			"total_debt", s.TotalDebt)
	}
}
