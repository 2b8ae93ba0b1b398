package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/neurostim/gotcs/pkg/protocol"
	"github.com/neurostim/gotcs/pkg/surface"
	"github.com/neurostim/gotcs/pkg/timing"
)

type generateFlags struct {
	out          string
	temps        []float64
	trials       int
	duration     time.Duration
	mode         string
	riseRate     float64
	returnRate   float64
	zones        []int
	baseline     float64
	wait         time.Duration
	triggerCode  int
	triggerDur   time.Duration
	noRecord     bool
	leadBaseline bool
}

func newGenerateCmd() *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a .protocol.ini step script",
		Long: "Generate a wait-trigger/stimulate step script the TCS control console can " +
			"replay without a host. One --temp value with --trials repeats the same " +
			"stimulation; multiple --temp values make one trial each.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runGenerate(f)
		},
	}

	cmd.Flags().StringVar(&f.out, "out", "", "output name; writes <name>"+protocol.FileSuffix)
	cmd.Flags().Float64SliceVar(&f.temps, "temp", nil, "target temperature(s), degrees C")
	cmd.Flags().IntVar(&f.trials, "trials", 0, "trial count (required with a single --temp)")
	cmd.Flags().DurationVar(&f.duration, "duration", 10*time.Second, "raw stimulation duration")
	cmd.Flags().StringVar(&f.mode, "mode", "fixed_plateau", "duration mode: fixed_stim, fixed_plateau or fixed_total")
	cmd.Flags().Float64Var(&f.riseRate, "rise-rate", 3, "rise rate, degrees C per second")
	cmd.Flags().Float64Var(&f.returnRate, "return-rate", 3, "return rate, degrees C per second")
	cmd.Flags().IntSliceVar(&f.zones, "zones", nil, "active zones 1-5 (default all)")
	cmd.Flags().Float64Var(&f.baseline, "baseline", 30, "baseline temperature, degrees C")
	cmd.Flags().DurationVar(&f.wait, "wait", 0, "per-zone onset offset")
	cmd.Flags().IntVar(&f.triggerCode, "trigger-code", 255, "trigger-out code, 0-255")
	cmd.Flags().DurationVar(&f.triggerDur, "trigger-dur", 100*time.Millisecond, "trigger-out pulse duration")
	cmd.Flags().BoolVar(&f.noRecord, "no-record", false, "disable console temperature recording")
	cmd.Flags().BoolVar(&f.leadBaseline, "lead-baseline", false, "start the protocol with a baseline step")
	_ = cmd.MarkFlagRequired("out")
	_ = cmd.MarkFlagRequired("temp")

	return cmd
}

func runGenerate(f generateFlags) error {
	mode, err := timing.ParseMode(f.mode)
	if err != nil {
		return err
	}

	zones := surface.All()
	if len(f.zones) > 0 {
		zones = surface.Of(f.zones...)
	}

	var opts []protocol.Option
	if f.noRecord {
		opts = append(opts, protocol.WithoutTemperatureRecording())
	}
	b := protocol.New(f.out, opts...)

	if f.leadBaseline {
		b.SetBaseline(f.baseline, false)
	}

	temps := protocol.PerTrial(f.temps)
	trials := 0
	if len(f.temps) == 1 {
		temps = protocol.Scalar(f.temps[0])
		trials = f.trials
	}

	if err := b.GenerateFromLists(protocol.Plan{
		Temperatures:    temps,
		Durations:       protocol.Scalar(f.duration),
		Zones:           protocol.Scalar(zones),
		RiseRates:       protocol.Scalar(f.riseRate),
		ReturnRates:     protocol.Scalar(f.returnRate),
		TriggerCodes:    protocol.Scalar(f.triggerCode),
		Baseline:        f.baseline,
		Wait:            f.wait,
		TriggerDuration: f.triggerDur,
		Mode:            mode,
		Trials:          trials,
	}); err != nil {
		return err
	}

	if err := b.WriteFile(); err != nil {
		return err
	}
	fmt.Printf("wrote %s%s (%d steps)\n", f.out, protocol.FileSuffix, b.Steps())
	return nil
}
