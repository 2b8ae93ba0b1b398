package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/neurostim/gotcs/pkg/config"
	"github.com/neurostim/gotcs/pkg/logger"
	"github.com/neurostim/gotcs/pkg/surface"
	"github.com/neurostim/gotcs/pkg/tcs"
	"github.com/neurostim/gotcs/pkg/timing"
)

type stimFlags struct {
	configPath string
	port       string
	target     float64
	riseRate   float64
	returnRate float64
	duration   time.Duration
	mode       string
	zones      []int
	csvPath    string
}

func newStimCmd() *cobra.Command {
	var f stimFlags

	cmd := &cobra.Command{
		Use:   "stim",
		Short: "Fire one stimulation and record temperatures",
		Long: "Connect to the stimulator, arm one stimulation, fire it, and poll " +
			"temperatures until the stimulation completes. The sample matrix is " +
			"written as CSV.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runStim(f)
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", "gotcs.yaml", "configuration file")
	cmd.Flags().StringVar(&f.port, "port", "", "serial port (overrides config)")
	cmd.Flags().Float64Var(&f.target, "target", 0, "target temperature, degrees C")
	cmd.Flags().Float64Var(&f.riseRate, "rise-rate", 3, "rise rate, degrees C per second")
	cmd.Flags().Float64Var(&f.returnRate, "return-rate", 3, "return rate, degrees C per second")
	cmd.Flags().DurationVar(&f.duration, "duration", 10*time.Second, "raw stimulation duration")
	cmd.Flags().StringVar(&f.mode, "mode", "fixed_plateau", "duration mode: fixed_stim, fixed_plateau or fixed_total")
	cmd.Flags().IntSliceVar(&f.zones, "zones", nil, "active zones 1-5 (default all)")
	cmd.Flags().StringVar(&f.csvPath, "csv", "", "sample CSV output path (default stdout)")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runStim(f stimFlags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	log := logger.Get(cfg.Log.Level)

	mode, err := timing.ParseMode(f.mode)
	if err != nil {
		return err
	}
	zones := surface.All()
	if len(f.zones) > 0 {
		zones = surface.Of(f.zones...)
	}

	port := cfg.Serial.Port
	if f.port != "" {
		port = f.port
	}
	transport, err := tcs.OpenSerial(port,
		tcs.WithBaudRate(cfg.Serial.BaudRate),
		tcs.WithReadTimeout(cfg.Serial.ReadTimeout))
	if err != nil {
		return err
	}

	session, err := tcs.NewSession(transport, tcs.Options{
		Baseline:  cfg.Session.Baseline,
		MaxTemp:   cfg.Session.MaxTemp,
		TriggerIn: cfg.Session.TriggerIn,
		Beep:      cfg.Session.Beep,
		Log:       log,
	})
	if err != nil {
		var warn *tcs.RangeWarning
		if !errors.As(err, &warn) {
			transport.Close()
			return err
		}
		// Out-of-range configuration was transmitted anyway; already logged.
	}
	defer session.Close()

	params, err := session.SetStim(tcs.StimRequest{
		Target:     f.target,
		RiseRate:   f.riseRate,
		ReturnRate: f.returnRate,
		Duration:   f.duration,
		Mode:       mode,
		Surfaces:   zones,
	})
	if err != nil {
		return err
	}

	matrix, err := session.TriggerAndSample(params, cfg.Sampling.TailOffset)
	if err != nil {
		return err
	}

	out := os.Stdout
	if f.csvPath != "" {
		out, err = os.Create(f.csvPath)
		if err != nil {
			return fmt.Errorf("failed to create CSV file: %w", err)
		}
		defer out.Close()
	}
	return matrix.WriteCSV(out)
}
