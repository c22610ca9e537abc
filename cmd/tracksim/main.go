// Command tracksim drives a GPS L1 C/A tracking channel against a
// configurable sample source — synthetic, a raw IQ file, or a serial
// front end — logging tracking progress and, if configured, writing a
// binary debug dump.
package main

import (
	"flag"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bramburn/gnss-tracking/internal/source"
	"github.com/bramburn/gnss-tracking/pkg/tracking"
)

func main() {
	configPath := flag.String("config", "", "path to channel configuration YAML")
	sourceKind := flag.String("source", "synthetic", "sample source: synthetic, file, or serial")
	filePath := flag.String("file", "", "path to raw interleaved int16 IQ file (source=file)")
	cn0DbHz := flag.Float64("cn0", 45, "target C/N0 in dB-Hz (source=synthetic)")
	seed := flag.Int64("seed", 1, "noise seed (source=synthetic)")
	epochs := flag.Int("epochs", 0, "number of epochs to process, 0 for unbounded")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	runLogger := logger.WithField("run_id", uuid.NewString())

	if *configPath == "" {
		runLogger.Fatal("--config is required")
	}

	cfg, acq, err := tracking.LoadChannelConfig(*configPath)
	if err != nil {
		runLogger.WithError(err).Fatal("failed to load channel configuration")
	}

	queue := tracking.NewControlQueue(8, runLogger)

	ch, err := tracking.NewChannel(1, cfg, queue, runLogger)
	if err != nil {
		runLogger.WithError(err).Fatal("failed to construct channel")
	}
	defer ch.Close()

	src, err := openSource(*sourceKind, cfg, acq, *filePath, *cn0DbHz, *seed)
	if err != nil {
		runLogger.WithError(err).Fatal("failed to open sample source")
	}
	if closer, ok := src.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	if err := ch.StartTracking(acq); err != nil {
		runLogger.WithError(err).Fatal("failed to start tracking")
	}

	go watchControlQueue(queue, runLogger)

	epoch := 0
	for *epochs == 0 || epoch < *epochs {
		meas, err := ch.Process(src)
		if err != nil {
			runLogger.WithError(err).Info("sample source exhausted")
			break
		}
		runLogger.WithFields(logrus.Fields{
			"prn":         meas.PRN,
			"doppler_hz":  meas.CarrierDopplerHz,
			"cn0_db_hz":   meas.CN0DbHz,
			"prompt_i":    meas.PromptI,
			"prompt_q":    meas.PromptQ,
			"phase":       ch.Phase().String(),
			"timestamp_s": meas.TrackingTimestampSecs,
		}).Info("measurement")
		epoch++
	}
}

func openSource(kind string, cfg tracking.ChannelConfig, acq tracking.AcquisitionHandoff, filePath string, cn0DbHz float64, seed int64) (tracking.SampleSource, error) {
	switch kind {
	case "synthetic":
		return source.NewSynthetic(acq.PRN, cfg.FsInHz, acq.AcqDopplerHz, cn0DbHz, seed)
	case "file":
		if filePath == "" {
			return nil, fmt.Errorf("--file is required for source=file")
		}
		return source.NewFile(filePath)
	case "serial":
		if cfg.Port == "" {
			return nil, fmt.Errorf("channel configuration has no port set for source=serial")
		}
		return source.NewSerial(cfg.Port)
	default:
		return nil, fmt.Errorf("unknown source kind %q", kind)
	}
}

func watchControlQueue(queue *tracking.ControlQueue, logger logrus.FieldLogger) {
	for ev := range queue.Events() {
		logger.WithFields(logrus.Fields{
			"channel_id": ev.ChannelID,
			"event_code": ev.EventCode,
			"run_id":     ev.RunID,
		}).Warn("control event")
	}
}
