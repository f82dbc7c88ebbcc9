package main

/*------------------------------------------------------------------
 *
 * Purpose:   	Transmit the DCF77 time signal from a GPIO pin pair.
 *
 * Description:	Wires the synthesis core to the system clock and the
 *		GPIO character device, then streams until interrupted
 *		or until the resync interval expires.  Keeping the
 *		system clock disciplined (NTP or otherwise) and
 *		restarting after a resync exit is the operator's job,
 *		typically a systemd unit with Restart=always.
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"

	dcf77 "github.com/elehobica/pico-dcf77-tx/src"
)

func main() {
	os.Exit(run())
}

func run() int {
	var configPath = pflag.StringP("config", "c", "", "Path to YAML configuration file.")
	var chip = pflag.String("chip", "", "GPIO chip device name, e.g. gpiochip0.")
	var pinP = pflag.Int("pin-p", -1, "GPIO line offset of the positive drive pin.")
	var pinN = pflag.Int("pin-n", -1, "GPIO line offset of the negative drive pin.")
	var seconds = pflag.IntP("seconds", "T", -1, "Seconds to transmit before exiting for clock resync, 0 for forever.")
	var dryRun = pflag.Bool("dry-run", false, "Synthesize without touching GPIO; report the waveform budget instead.")
	var verbose = pflag.BoolP("verbose", "v", false, "Enable debug logging.")
	pflag.Parse()

	var logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "dcf77tx",
		ReportTimestamp: true,
	})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}
	dcf77.SetLogger(logger)

	var cfg = dcf77.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = dcf77.LoadConfig(*configPath); err != nil {
			logger.Error("cannot load configuration", "err", err)
			return 1
		}
	}
	if *chip != "" {
		cfg.Chip = *chip
	}
	if *pinP >= 0 {
		cfg.PinP = *pinP
	}
	if *pinN >= 0 {
		cfg.PinN = *pinN
	}
	if *seconds >= 0 {
		cfg.ResyncSeconds = *seconds
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		return 1
	}

	var table, err = dcf77.NewDescriptorTable(cfg.TicksPerCycle)
	if err != nil {
		logger.Error("cannot build descriptor table", "err", err)
		return 1
	}

	var pacer = dcf77.NewTickPacer(cfg.SystemFreqHz())
	var sink dcf77.WaveformSink
	var counter *dcf77.CountingSink
	if *dryRun {
		counter = dcf77.NewCountingSink(pacer)
		sink = counter
	} else {
		var pins, pinErr = dcf77.OpenPinPair(cfg.Chip, cfg.PinP, cfg.PinN, pacer)
		if pinErr != nil {
			logger.Error("cannot open GPIO lines", "chip", cfg.Chip, "err", pinErr)
			return 1
		}
		defer pins.Close()
		sink = pins
	}

	var ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.ResyncSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.ResyncSeconds)*time.Second)
		defer cancel()
	}

	var startedAt, _ = strftime.Format(cfg.TimestampFormat, time.Now())
	logger.Info("starting emission",
		"carrier_hz", dcf77.CarrierFreqHz,
		"system_hz", cfg.SystemFreqHz(),
		"started_at", startedAt)

	var seq = dcf77.NewCarrierSequencer(sink, cfg.FIFODepth)
	seq.Preload(table.HalfPeriodPreload())
	var seqDone = make(chan struct{})
	go func() {
		defer close(seqDone)
		seq.Run(ctx)
	}()

	var sched = dcf77.NewMinuteScheduler(seq, table, dcf77.LocalTime{})
	if err := sched.Run(ctx); err != nil {
		stop()
		logger.Error("scheduler failed", "err", err)
		return 1
	}
	<-seqDone

	logger.Info("emission stopped",
		"descriptors", seq.Fetched(),
		"underruns", sched.Underruns(),
		"overruns", sched.Overruns(),
		"encode_errors", sched.EncodeErrors(),
		"reason", stopReason(ctx))
	if counter != nil {
		fmt.Printf("dry run: %d segments, %d ticks (%s of carrier)\n",
			counter.Segments, counter.TotalTicks,
			time.Duration(int64(counter.TotalTicks)*int64(time.Second)/cfg.SystemFreqHz()))
	}
	return 0
}

func stopReason(ctx context.Context) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "resync interval elapsed"
	}
	return "interrupted"
}
