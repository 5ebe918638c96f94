/*
NAME
  sparsdr-calibrate - computes and writes SparSDR per-bin detection
  thresholds from a folder of calibration captures.

AUTHOR
  SysNet SDR Group, UC San Diego

LICENSE
  Copyright (C) 2026 the SysNet SDR Group, UC San Diego.
*/

// sparsdr-calibrate reads a folder of no-antenna average-magnitude
// captures (one file per candidate bit-shift, named
// avgSamples.dat_<shift>_<rxgain>), fits a per-bin noise floor, and
// writes a threshold configuration file consumed by the SparSDR FPGA
// image at startup. It can optionally perform a receive-gain clip
// check first, render a diagnostic plot of the fit, and re-run
// whenever the calibration folder changes.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"
	"github.com/ucsdsysnet/sparsdr/calib"
	"github.com/ucsdsysnet/sparsdr/stream"
)

const (
	progName       = "sparsdr-calibrate"
	logPath        = "/var/log/sparsdr-calibrate/sparsdr-calibrate.log"
	defaultNFFT   = 1024
	defaultRxGain = 30
	defaultPAPRdB = 0.0
	defaultBWMHz  = 0.01
)

func main() {
	avgFolder := flag.String("avgFolder", "/tmp/plutoSparSDRFiles/", "folder containing calibration captures")
	useV2 := flag.Bool("v2", false, "calibration captures use the V2 wire format")
	nfft := flag.Int("nfft", defaultNFFT, "FFT size")
	rxGain := flag.Int("rxgain", defaultRxGain, "receive gain (dB) the captures were recorded at")
	paprDB := flag.Float64("papr", defaultPAPRdB, "estimated peak-to-average power ratio (dB) of the strongest expected in-band signal")
	bwMHz := flag.Float64("bwmhz", defaultBWMHz, "estimated bandwidth (MHz) of the strongest expected in-band signal")
	doClipCheck := flag.Bool("clipCheck", false, "run the receive-gain clip check before fitting")
	doPlot := flag.Bool("plot", false, "render a diagnostic plot alongside the config file")
	watch := flag.Bool("watch", false, "re-run calibration whenever the capture folder changes, instead of exiting after one pass")
	logLevel := flag.Int("LogLevel", int(logging.Info), "log level")
	flag.Parse()

	rotator := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
	}
	defer rotator.Close()
	log := logging.New(int8(*logLevel), rotator, true)
	log.Info(progName+" starting", "avgFolder", *avgFolder, "nfft", *nfft, "rxgain", *rxGain)

	gain := *rxGain
	if *doClipCheck {
		var err error
		gain, err = calib.ClipCheck(filepath.Join(*avgFolder, calib.DefaultClipCheckFilename), *rxGain)
		if err != nil {
			log.Fatal("clip check failed", "error", err.Error())
		}
		if gain != *rxGain {
			log.Info("clip check adjusted receive gain", "requested", *rxGain, "used", gain)
		}
	}

	version := calib.V1
	if *useV2 {
		version = calib.V2
	}

	run := func() error {
		return runOnce(*avgFolder, *nfft, gain, version, *paprDB, *bwMHz, *doPlot, log)
	}

	if !*watch {
		if err := run(); err != nil {
			log.Fatal("calibration failed", "error", err.Error())
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := calib.Watch(ctx, *avgFolder, run, log); err != nil && ctx.Err() == nil {
		log.Fatal("watch failed", "error", err.Error())
	}
}

// runOnce performs one fit-and-write pass, returning any error from
// the fitter itself. A degraded (no shift passed) calibration is
// still written, since MissingCalibration is a deployment decision,
// not a crash.
func runOnce(avgFolder string, nfft, rxGain int, version calib.Version, paprDB, bwMHz float64, doPlot bool, log logging.Logger) error {
	res, err := calib.Fit(avgFolder, nfft, rxGain, version, log)
	if err != nil && res.BinIdx == nil {
		return err
	}
	if res.Degraded {
		log.Warning("calibration degraded: no shift produced a clean noise floor, using shift 0", "shift", res.ShiftValue)
	}

	conservative := calib.ConservativeShift(nfft, paprDB, bwMHz)

	thresholds := make(map[stream.BinIndex]float64, len(res.BinIdx))
	for i, bin := range res.BinIdx {
		t := res.ThreshLinear[i]
		if !isNaN(res.ThreshLinearOutliers[i]) {
			t = res.ThreshLinearOutliers[i]
		}
		thresholds[bin] = t
	}

	rec := calib.CalibrationRecord{
		RxGainDB:          rxGain,
		EstPAPRdB:         paprDB,
		EstBWMHz:          bwMHz,
		ConservativeShift: conservative,
		SuggestedShift:    res.ShiftValue,
		Thresholds:        thresholds,
	}

	path := filepath.Join(avgFolder, calib.DefaultConfigFilename)
	if err := calib.WriteConfig(path, rec); err != nil {
		return err
	}
	log.Info("wrote calibration config", "path", path, "shift", res.ShiftValue)

	if doPlot {
		plotPath := filepath.Join(avgFolder, "calibration.png")
		if err := calib.PlotResult(plotPath, res); err != nil {
			log.Warning("diagnostic plot failed, calibration config was still written", "error", err.Error())
		} else {
			log.Info("wrote diagnostic plot", "path", plotPath)
		}
	}
	return nil
}

func isNaN(f float64) bool { return f != f }
