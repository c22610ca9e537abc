// Package tracking implements the per-channel GPS L1 C/A code/carrier
// tracking loop: PRN code generation, carrier NCO, EPL correlation,
// DLL/PLL loop filters, lock/C/N0 estimation and the tracking channel
// state machine that ties them together.
package tracking

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Error is a sentinel error kind, following the same named-string
// idiom used elsewhere in the GNSS-SDR Go port for small, comparable
// error values.
type Error string

func (e Error) Error() string { return string(e) }

// Error kinds used by this package. Construction
// errors (ConfigInvalid, AllocationFailed) are fatal; AcquisitionStale
// rejects a start-tracking request; DumpIO and ControlQueueFull are
// logged and suppressed at the call site.
const (
	ErrConfigInvalid    Error = "tracking: invalid channel configuration"
	ErrAcquisitionStale Error = "tracking: acquisition sample stamp is ahead of channel sample counter"
	ErrAllocationFailed Error = "tracking: failed to allocate aligned buffers"
	ErrDumpIO           Error = "tracking: dump file I/O error"
	ErrControlQueueFull Error = "tracking: control queue full"
)

// ReplicaPolicy selects how the local E/P/L code replicas are produced.
// Regenerate rebuilds them every epoch from the stored C/A sequence
// (the "standard" variant); PreSampled builds them once at pull-in and
// reuses the buffer for the life of the channel (the "optim" variant,
// which deliberately does not compensate code Doppler in the replica).
type ReplicaPolicy int

const (
	Regenerate ReplicaPolicy = iota
	PreSampled
)

// FilterBackend selects which LoopFilter implementation a channel's
// pull-in hand-off constructs for both the PLL and the DLL.
type FilterBackend int

const (
	// LocalFilter runs the DLL/PLL second-order filters in-process.
	LocalFilter FilterBackend = iota
	// TCPFilterBackend delegates filtering to an external process over
	// TCPFilterAddr, one persistent connection per loop.
	TCPFilterBackend
)

// ChannelConfig holds the immutable-after-construction parameters of a
// tracking channel.
type ChannelConfig struct {
	IfFreqHz          float64       `yaml:"if_freq_hz"`
	FsInHz            float64       `yaml:"fs_in_hz"`
	PllBwHz           float64       `yaml:"pll_bw_hz"`
	DllBwHz           float64       `yaml:"dll_bw_hz"`
	EarlyLateSpcChips float64       `yaml:"early_late_spc_chips"`
	VectorLength      int           `yaml:"vector_length"`
	ReplicaPolicy     ReplicaPolicy `yaml:"-"`
	Dump              bool          `yaml:"dump"`
	DumpFilename      string        `yaml:"dump_filename"`
	Port              string        `yaml:"port"`

	FilterBackend FilterBackend `yaml:"-"`
	TCPFilterAddr string        `yaml:"tcp_filter_addr"`
}

// Validate checks the channel configuration invariants. Construction
// of a Channel calls this and returns the error rather than panicking.
func (c ChannelConfig) Validate() error {
	if c.FsInHz <= 0 {
		return fmt.Errorf("%w: fs_in_hz must be positive, got %g", ErrConfigInvalid, c.FsInHz)
	}
	if c.EarlyLateSpcChips <= 0 {
		return fmt.Errorf("%w: early_late_spc_chips must be positive, got %g", ErrConfigInvalid, c.EarlyLateSpcChips)
	}
	if c.PllBwHz <= 0 {
		return fmt.Errorf("%w: pll_bw_hz must be positive, got %g", ErrConfigInvalid, c.PllBwHz)
	}
	if c.DllBwHz <= 0 {
		return fmt.Errorf("%w: dll_bw_hz must be positive, got %g", ErrConfigInvalid, c.DllBwHz)
	}
	if c.VectorLength <= 0 {
		return fmt.Errorf("%w: vector_length must be positive, got %d", ErrConfigInvalid, c.VectorLength)
	}
	if c.FilterBackend == TCPFilterBackend && c.TCPFilterAddr == "" {
		return fmt.Errorf("%w: tcp_filter_addr is required when filter_backend is tcp", ErrConfigInvalid)
	}
	return nil
}

// AcquisitionHandoff is the read-once acquisition record supplied to
// Channel.StartTracking.
type AcquisitionHandoff struct {
	PRN                 int     `yaml:"prn"`
	AcqCodePhaseSamples float64 `yaml:"acq_code_phase_samples"`
	AcqDopplerHz        float64 `yaml:"acq_doppler_hz"`
	AcqSampleStamp      uint64  `yaml:"acq_sample_stamp"`
	SystemTag           string  `yaml:"system_tag"`
}

// Validate checks that the PRN falls within the GPS L1 C/A range.
func (a AcquisitionHandoff) Validate() error {
	if a.PRN < 1 || a.PRN > 32 {
		return fmt.Errorf("%w: unknown PRN %d", ErrConfigInvalid, a.PRN)
	}
	return nil
}

// channelConfigDocument is the on-disk YAML shape for LoadChannelConfig:
// the channel configuration and the acquisition hand-off record side by
// side in one flat document.
type channelConfigDocument struct {
	Channel       ChannelConfig      `yaml:"channel"`
	Acquisition   AcquisitionHandoff `yaml:"acquisition"`
	Replica       string             `yaml:"replica_policy"`
	FilterBackend string             `yaml:"filter_backend"`
}

// LoadChannelConfig reads a YAML channel configuration document from
// path into a small parsed document type that feeds plain exported
// structs.
func LoadChannelConfig(path string) (ChannelConfig, AcquisitionHandoff, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ChannelConfig{}, AcquisitionHandoff{}, fmt.Errorf("tracking: read config %s: %w", path, err)
	}

	var doc channelConfigDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return ChannelConfig{}, AcquisitionHandoff{}, fmt.Errorf("tracking: parse config %s: %w", path, err)
	}

	switch doc.Replica {
	case "", "pre_sampled", "presampled", "optim":
		doc.Channel.ReplicaPolicy = PreSampled
	case "regenerate", "standard":
		doc.Channel.ReplicaPolicy = Regenerate
	default:
		return ChannelConfig{}, AcquisitionHandoff{}, fmt.Errorf("%w: unknown replica_policy %q", ErrConfigInvalid, doc.Replica)
	}

	switch doc.FilterBackend {
	case "", "local":
		doc.Channel.FilterBackend = LocalFilter
	case "tcp":
		doc.Channel.FilterBackend = TCPFilterBackend
	default:
		return ChannelConfig{}, AcquisitionHandoff{}, fmt.Errorf("%w: unknown filter_backend %q", ErrConfigInvalid, doc.FilterBackend)
	}

	if err := doc.Channel.Validate(); err != nil {
		return ChannelConfig{}, AcquisitionHandoff{}, err
	}
	if err := doc.Acquisition.Validate(); err != nil {
		return ChannelConfig{}, AcquisitionHandoff{}, err
	}

	return doc.Channel, doc.Acquisition, nil
}
