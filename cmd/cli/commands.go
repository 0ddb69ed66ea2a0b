package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ecgrisk/adapters/surface/raster"
	"ecgrisk/adapters/surface/svg"
	"ecgrisk/domain/model"
	"ecgrisk/domain/patient"
	"ecgrisk/domain/signal"
	"ecgrisk/internal/augment"
	"ecgrisk/internal/errors"
	"ecgrisk/internal/export"
	"ecgrisk/internal/predict"
	"ecgrisk/internal/preprocess"
	"ecgrisk/internal/render"
)

func newSynthCmd() *cobra.Command {
	var length int
	var seed int64
	var format string

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Print a synthesized lead",
		Long: `Synthesize a lead from the seeded sine mixture and print it.

Example: ecgrisk-cli synth --length 500 --seed 7 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if length < 0 {
				return errors.InvalidInput("--length must be >= 0")
			}
			return writeSamples(cmd.OutOrStdout(), signal.Synthesize(length, seed).Samples(), format)
		},
	}

	cmd.Flags().IntVar(&length, "length", 500, "Number of samples")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed for the noise term")
	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv or json")
	return cmd
}

func newRenderCmd() *cobra.Command {
	var input, output string
	var length, start, window, width, height int
	var seed int64
	var grid bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw a window of a lead to PNG or SVG",
		Long: `Render the visible window [start, start+window) of a lead.

The format follows the output extension.
Example: ecgrisk-cli render --seed 3 --start 40 -o lead.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := loadSignal(input, length, seed)
			if err != nil {
				return err
			}
			opts := render.DefaultWaveformOptions()
			opts.Width, opts.Height, opts.ShowGrid = width, height, grid
			w := render.NewWaveform(opts)

			f, err := os.Create(output)
			if err != nil {
				return errors.Wrapf(err, "create %s", output)
			}
			defer f.Close()

			switch {
			case strings.HasSuffix(output, ".svg"):
				s := svg.New(width, height)
				w.Render(s, sig.Samples(), start, window)
				_, err = s.WriteTo(f)
			default:
				s := raster.New(width, height)
				w.Render(s, sig.Samples(), start, window)
				err = s.EncodePNG(f)
			}
			if err != nil {
				return errors.Wrapf(err, "write %s", output)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d, samples %d..%d)\n", output, width, height, start, start+window)
			return nil
		},
	}

	signalFlags(cmd, &input, &length, &seed)
	cmd.Flags().StringVarP(&output, "output", "o", "waveform.png", "Output file (.png or .svg)")
	cmd.Flags().IntVar(&start, "start", 0, "First visible sample")
	cmd.Flags().IntVar(&window, "window", 200, "Visible window length")
	cmd.Flags().IntVar(&width, "width", render.DefaultWidth, "Surface width in pixels")
	cmd.Flags().IntVar(&height, "height", render.DefaultHeight, "Surface height in pixels")
	cmd.Flags().BoolVar(&grid, "grid", true, "Draw the background grid")
	return cmd
}

func newPreprocessCmd() *cobra.Command {
	var input, output string
	var length int
	var seed int64
	var clinical bool
	var norm string
	var smooth, smoothOrder int

	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Filter, denoise and normalize a lead and report its quality",
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := loadSignal(input, length, seed)
			if err != nil {
				return err
			}
			cfg := preprocess.DefaultConfig()
			if clinical {
				cfg = preprocess.ClinicalConfig()
			}
			if norm != "" {
				cfg.Normalization = norm
			}
			cfg.SmoothWindow, cfg.SmoothOrder = smooth, smoothOrder
			p, err := preprocess.NewPipeline(cfg)
			if err != nil {
				return err
			}
			res, err := p.Process(sig)
			if err != nil {
				return err
			}
			if output != "" {
				if err := writeSamplesFile(output, res.Signal.Samples()); err != nil {
					return err
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res.Quality)
		},
	}

	signalFlags(cmd, &input, &length, &seed)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the processed samples as CSV")
	cmd.Flags().BoolVar(&clinical, "clinical", false, "Use the 500 Hz, 5000-sample clinical configuration")
	cmd.Flags().StringVar(&norm, "norm", "", "Normalization: zscore, minmax, robust or none")
	cmd.Flags().IntVar(&smooth, "smooth", 0, "Savitzky-Golay window in samples, 0 disables")
	cmd.Flags().IntVar(&smoothOrder, "smooth-order", preprocess.DefaultSmoothOrder, "Savitzky-Golay polynomial order")
	return cmd
}

func newAugmentCmd() *cobra.Command {
	var steps []string
	var perSignal int
	var seed int64
	var length int

	cmd := &cobra.Command{
		Use:   "augment",
		Short: "Expand the patient catalog into an augmented training set",
		Long: `Expand every catalog patient's lead to --per-signal samples (the
original plus augmented copies) and print one summary line per sample.

Example: ecgrisk-cli augment --steps gaussian_noise,time_warp --per-signal 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			chain := augment.DefaultPipeline()
			if len(steps) > 0 {
				var err error
				if chain, err = augment.StepsByName(steps); err != nil {
					return err
				}
			}

			var signals []signal.Signal
			var labels []int
			for _, p := range patient.Catalog() {
				signals = append(signals, signal.Synthesize(length, p.SignalSeed))
				label := 0
				if p.Label == patient.LabelLVSD {
					label = 1
				}
				labels = append(labels, label)
			}

			samples, err := augment.Dataset(cmd.Context(), signals, labels, perSignal, chain, seed)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "index,label,augmented,mean,std")
			for i, s := range samples {
				mean, std := augment.Stats(s.Signal.Samples())
				fmt.Fprintf(out, "%d,%d,%t,%.4f,%.4f\n", i, s.Label, s.Augmented, mean, std)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&steps, "steps", nil, "Augmentation steps, default gaussian_noise,amplitude_scale,time_shift,time_warp")
	cmd.Flags().IntVar(&perSignal, "per-signal", 2, "Samples per lead, original included")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic augmentation")
	cmd.Flags().IntVar(&length, "length", 500, "Samples per lead")
	return cmd
}

func newExportCmd() *cobra.Command {
	var patientID, output string
	var length int
	var seed int64

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a patient's workbook with predictions from every model",
		RunE: func(cmd *cobra.Command, args []string) error {
			var pt *patient.Patient
			for _, p := range patient.Catalog() {
				if string(p.ID) == patientID {
					p := p
					pt = &p
				}
			}
			if pt == nil {
				return errors.NotFound("patient " + patientID)
			}

			sig := signal.Synthesize(length, pt.SignalSeed)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			report := export.Build(ctx, predict.NewMock(seed), pt, sig)

			f, err := os.Create(output)
			if err != nil {
				return errors.Wrapf(err, "create %s", output)
			}
			defer f.Close()
			if err := export.WriteWorkbook(f, report); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s with %d predictions\n", output, len(report.Predictions))
			return nil
		},
	}

	cmd.Flags().StringVar(&patientID, "patient", "pt-001", "Patient ID from the catalog")
	cmd.Flags().StringVarP(&output, "output", "o", "ecg-report.xlsx", "Output workbook")
	cmd.Flags().IntVar(&length, "length", 500, "Samples in the lead")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Seed of the mock predictor")
	return cmd
}

func newCurvesCmd() *cobra.Command {
	var name, output string
	var epochs, width, height int
	var seed int64

	cmd := &cobra.Command{
		Use:   "curves",
		Short: "Plot a model's training and validation accuracy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := model.Lookup(name); !ok {
				return errors.NotFound("model " + name)
			}
			f, err := os.Create(output)
			if err != nil {
				return errors.Wrapf(err, "create %s", output)
			}
			defer f.Close()
			if err := render.CurvesPNG(f, model.Curves(name, epochs, seed), width, height); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "model", model.DefaultModel, "Model name")
	cmd.Flags().StringVarP(&output, "output", "o", "curves.png", "Output PNG")
	cmd.Flags().IntVar(&epochs, "epochs", 50, "Number of epochs")
	cmd.Flags().IntVar(&width, "width", 800, "Image width")
	cmd.Flags().IntVar(&height, "height", 400, "Image height")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed for the curve noise")
	return cmd
}

func signalFlags(cmd *cobra.Command, input *string, length *int, seed *int64) {
	cmd.Flags().StringVar(input, "input", "", "Read samples from a CSV file instead of synthesizing")
	cmd.Flags().IntVar(length, "length", 500, "Samples to synthesize")
	cmd.Flags().Int64Var(seed, "seed", 1, "Synthesizer seed")
}
