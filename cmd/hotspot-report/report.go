package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/hotspot-report/internal/columns"
	"github.com/inodb/hotspot-report/internal/duckdb"
	"github.com/inodb/hotspot-report/internal/output"
	"github.com/inodb/hotspot-report/internal/report"
)

// Config keys shared by flags, config file and environment.
const (
	keyDepthCeiling = "report.depth_ceiling"
	keyDepthField   = "report.depth_field"
	keyLevels       = "report.levels"
	keyArchive      = "report.archive"
)

type reportFlags struct {
	sample     string
	hotspots   string
	vcf        string
	nodupVCF   string
	gvcf       string
	reference  string
	columns    string
	outputFile string
	splitMulti bool
}

func newReportCmd(newLogger func() (*zap.Logger, error)) *cobra.Command {
	var f reportFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the hotspot report of one sample",
		Example: `  hotspot-report report --sample S1 --hotspots hotspots.tsv --vcf S1.vep.vcf.gz \
      --gvcf S1.gvcf.gz --reference reference_info.tsv -o S1.report.tsv
  hotspot-report report ... --columns report_columns.yaml --levels 300:ok:yes --levels 30:low:yes
  hotspot-report report ... --archive reports.duckdb`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.validate(); err != nil {
				return err
			}
			logger, err := newLogger()
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck
			return runReport(cmd, f, logger)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.sample, "sample", "s", "", "Sample name in the VCF and genomic VCF")
	fl.StringVar(&f.hotspots, "hotspots", "", "Hotspot catalog TSV ('-' for none)")
	fl.StringVar(&f.vcf, "vcf", "", "Annotated VCF")
	fl.StringVar(&f.nodupVCF, "nodup-vcf", "", "VCF classified instead of --vcf; annotation is still read from --vcf")
	fl.StringVar(&f.gvcf, "gvcf", "", "Genomic VCF with per-position depth")
	fl.StringVar(&f.reference, "reference", "", "Chromosome name table (short name and accession)")
	fl.StringVar(&f.columns, "columns", "", "Column definition YAML")
	fl.StringVarP(&f.outputFile, "output", "o", "", "Output file (default: stdout)")
	fl.BoolVar(&f.splitMulti, "split-multiallelic", false, "Split records with several ALT alleles instead of failing")
	fl.StringSlice("levels", nil, "Read depth level as min:status:analyzable, highest first (repeatable)")
	fl.Float64("depth-ceiling", report.DefaultDepthCeiling, "Depth above which uncovered region_all positions are left out")
	fl.String("depth-field", "", "Genomic VCF FORMAT key holding the depth (default: from --columns, else DP)")
	fl.String("archive", "", "DuckDB file the report is archived to")

	_ = viper.BindPFlag(keyLevels, fl.Lookup("levels"))
	_ = viper.BindPFlag(keyDepthCeiling, fl.Lookup("depth-ceiling"))
	_ = viper.BindPFlag(keyDepthField, fl.Lookup("depth-field"))
	_ = viper.BindPFlag(keyArchive, fl.Lookup("archive"))

	return cmd
}

func (f reportFlags) validate() error {
	required := []struct{ name, value string }{
		{"sample", f.sample},
		{"hotspots", f.hotspots},
		{"vcf", f.vcf},
		{"gvcf", f.gvcf},
		{"reference", f.reference},
	}
	for _, r := range required {
		if r.value == "" {
			return &usageError{fmt.Errorf("--%s is required", r.name)}
		}
	}
	return nil
}

func runReport(cmd *cobra.Command, f reportFlags, logger *zap.Logger) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts := report.Options{
		Sample:        f.sample,
		HotspotsPath:  f.hotspots,
		VCFPath:       f.vcf,
		NoDupVCFPath:  f.nodupVCF,
		GVCFPath:      f.gvcf,
		ReferencePath: f.reference,
		ColumnsPath:   f.columns,
		DepthField:    viper.GetString(keyDepthField),
		SplitMulti:    f.splitMulti,
	}
	ceiling := viper.GetFloat64(keyDepthCeiling)
	opts.DepthCeiling = &ceiling
	if raw := viper.GetStringSlice(keyLevels); len(raw) > 0 {
		levels, err := columns.ParseLevels(raw)
		if err != nil {
			return &usageError{fmt.Errorf("--levels: %w", err)}
		}
		opts.Levels = levels
	}

	out := cmd.OutOrStdout()
	if f.outputFile != "" {
		file, err := os.Create(f.outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer file.Close()
		out = file
	}
	tw := output.NewTabWriter(out)

	var sink output.RowWriter = tw
	var archived *duckdb.RunWriter
	if path := viper.GetString(keyArchive); path != "" {
		store, err := duckdb.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()

		inputs, err := fingerprints(opts)
		if err != nil {
			return err
		}
		archived = store.NewRun(opts.Sample, inputs...)
		sink = output.MultiWriter{tw, archived}
	}

	gen := report.New(opts)
	gen.SetLogger(logger)
	if err := gen.Run(ctx, sink); err != nil {
		return err
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if archived != nil {
		if err := archived.Commit(ctx); err != nil {
			return err
		}
		logger.Info("archived report", zap.String("run_id", archived.ID()))
	}

	hot, other := gen.Rows()
	logger.Info("report written",
		zap.String("sample", opts.Sample),
		zap.Int("hotspot_rows", hot),
		zap.Int("other_rows", other))
	return nil
}

// fingerprints describes the input files of a run.
func fingerprints(opts report.Options) ([]duckdb.FileFingerprint, error) {
	files := []struct{ role, path string }{
		{"hotspots", opts.HotspotsPath},
		{"vcf", opts.VCFPath},
		{"nodup_vcf", opts.NoDupVCFPath},
		{"gvcf", opts.GVCFPath},
		{"reference", opts.ReferencePath},
		{"columns", opts.ColumnsPath},
	}

	var out []duckdb.FileFingerprint
	for _, file := range files {
		if file.path == "" || file.path == "-" {
			continue
		}
		fp, err := duckdb.StatFile(file.role, file.path)
		if err != nil {
			return nil, err
		}
		out = append(out, fp)
	}
	return out, nil
}
