// Package main provides the batch extraction CLI: it samples a table of point
// queries against one or more NetCDF datasets and writes CSV result tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.ngs.io/extract-api/internal/adapter/querytable"
	"go.ngs.io/extract-api/internal/adapter/store/netcdf"
	"go.ngs.io/extract-api/internal/adapter/writer"
	"go.ngs.io/extract-api/internal/config"
	"go.ngs.io/extract-api/internal/logger"
	"go.ngs.io/extract-api/internal/usecase"
)

const version = "0.1.0"

func main() {
	queriesPath := flag.String("queries", "", "Path to the CSV query table (required)")
	datasetsArg := flag.String("datasets", "", "Datasets as id=output_name pairs, comma-separated (required)")
	varsArg := flag.String("vars", "", "Variables to extract, comma-separated (required)")
	outDir := flag.String("out", "", "Output directory (default: output.dir from config)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("extract version %s\n", version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	log := logger.Get("extract-cli")

	if *queriesPath == "" || *datasetsArg == "" || *varsArg == "" {
		flag.Usage()
		os.Exit(2)
	}

	datasets, err := parseDatasets(*datasetsArg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -datasets")
	}
	variables := splitList(*varsArg)
	if len(variables) == 0 {
		log.Fatal().Msg("-vars must name at least one variable")
	}

	table, err := querytable.Load(*queriesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load query table")
	}
	log.Info().
		Int("queries", len(table.Queries)).
		Str("mode", table.Mode.String()).
		Msg("query table loaded")

	dir := *outDir
	if dir == "" {
		dir = cfg.Output.Dir
	}

	store := netcdf.NewStore(cfg.Data.Dir)
	extractor := usecase.NewExtractor(store, cfg.Extract.Workers, logger.Get("extract"))

	req := usecase.Request{
		Datasets:  datasets,
		Variables: variables,
		Queries:   table.Queries,
	}
	res, err := extractor.Run(context.Background(), req)
	if err != nil {
		log.Fatal().Err(err).Msg("extraction aborted")
	}

	// Tables carry a column per variable any query sampled, including
	// per-row overrides from the query table.
	columns := req.OutputVariables()

	out := writer.NewCSVWriter(dir)
	written := 0
	for _, dr := range res.Datasets {
		if table.Mode == querytable.ModeInstant {
			path, err := out.WriteInstant(dr.OutputName, columns, dr.Instant)
			if err != nil {
				log.Fatal().Err(err).Str("dataset", dr.DatasetID).Msg("failed to write results")
			}
			log.Info().Str("path", path).Int("rows", len(dr.Instant)).Msg("wrote instant table")
			written++
			continue
		}
		for _, s := range dr.Series {
			path, err := out.WriteSeries(dr.OutputName, columns, s)
			if err != nil {
				log.Fatal().Err(err).Str("dataset", dr.DatasetID).Str("query", s.QueryID).Msg("failed to write series")
			}
			log.Debug().Str("path", path).Int("rows", s.Len()).Msg("wrote series table")
			written++
		}
	}

	for _, f := range res.Failures {
		log.Warn().
			Str("dataset", f.DatasetID).
			Str("query", f.QueryID).
			Str("reason", f.Reason).
			Msg(f.Detail)
	}
	log.Info().
		Int("tables", written).
		Int("failures", len(res.Failures)).
		Msg("extraction finished")

	if written == 0 {
		os.Exit(1)
	}
}

// parseDatasets parses "id=name,id2=name2"; the output name defaults to the id.
func parseDatasets(arg string) ([]usecase.DatasetSpec, error) {
	var specs []usecase.DatasetSpec
	for _, entry := range splitList(arg) {
		id, name, found := strings.Cut(entry, "=")
		if id == "" {
			return nil, fmt.Errorf("empty dataset id in %q", entry)
		}
		if !found || name == "" {
			name = id
		}
		specs = append(specs, usecase.DatasetSpec{ID: id, OutputName: name})
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no datasets given")
	}
	return specs, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
