package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/como-monitor/como/internal/logger"
	"github.com/como-monitor/como/internal/source"
)

const DefaultSystemInterval = 2 * time.Second

const (
	SystemCPUSource    = "system::cpu.usage"
	SystemMemorySource = "system::memory.used"
	SystemUptimeSource = "system::uptime"
	SystemBootSource   = "system::boot.time"
)

// Sample is one reading of the host metrics.
type Sample struct {
	CPUPercent    float64
	MemoryPercent float64
	Uptime        uint64 // seconds
	BootTime      time.Time
}

// ReadSample reads host metrics. CPU usage is measured since the previous
// call.
func ReadSample(ctx context.Context) (Sample, error) {
	var s Sample

	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return s, fmt.Errorf("cpu: %w", err)
	}
	if len(percents) > 0 {
		s.CPUPercent = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return s, fmt.Errorf("memory: %w", err)
	}
	s.MemoryPercent = vm.UsedPercent

	if s.Uptime, err = host.UptimeWithContext(ctx); err != nil {
		return s, fmt.Errorf("uptime: %w", err)
	}

	boot, err := host.BootTimeWithContext(ctx)
	if err != nil {
		return s, fmt.Errorf("boot time: %w", err)
	}
	s.BootTime = time.Unix(int64(boot), 0)

	return s, nil
}

// System publishes host CPU, memory, uptime and boot time.
type System struct {
	pub      source.Publisher
	interval time.Duration
	log      *slog.Logger
	read     func(context.Context) (Sample, error)

	cpu    *source.Source
	memory *source.Source
	uptime *source.Source
	boot   *source.Source
}

func NewSystem(pub source.Publisher, interval time.Duration, log *slog.Logger) *System {
	if interval <= 0 {
		interval = DefaultSystemInterval
	}
	if log == nil {
		log = logger.Discard()
	}
	return &System{
		pub:      pub,
		interval: interval,
		log:      log.With(logger.Component("producer.system")),
		read:     ReadSample,
	}
}

func (s *System) Name() string { return "system" }

// Run publishes the first sample immediately and refreshes every interval
// until ctx is done.
func (s *System) Run(ctx context.Context) error {
	first, err := s.read(ctx)
	if err != nil {
		return fmt.Errorf("system producer: %w", err)
	}
	s.open(first)
	s.log.Info("system sources published", logger.Duration(s.interval))

	return tick(ctx, s.log, s.interval, []*source.Source{s.cpu, s.memory, s.uptime, s.boot}, s.step)
}

func (s *System) open(first Sample) {
	s.cpu = source.New(SystemCPUSource, "percent", "host cpu usage",
		source.DoubleValue(first.CPUPercent), s.pub)
	s.memory = source.New(SystemMemorySource, "percent", "host memory in use",
		source.DoubleValue(first.MemoryPercent), s.pub)
	s.uptime = source.New(SystemUptimeSource, "seconds", "host uptime",
		source.UInt64Value(first.Uptime), s.pub)
	s.boot = source.New(SystemBootSource, "datetime", "host boot time",
		source.DateTimeValue(first.BootTime), s.pub)
}

func (s *System) step(ctx context.Context) error {
	sample, err := s.read(ctx)
	if err != nil {
		return err
	}
	return errors.Join(
		s.cpu.SetValue(source.DoubleValue(sample.CPUPercent)),
		s.memory.SetValue(source.DoubleValue(sample.MemoryPercent)),
		s.uptime.SetValue(source.UInt64Value(sample.Uptime)),
		s.setBoot(sample.BootTime),
	)
}

// setBoot only publishes when the boot time actually moved.
func (s *System) setBoot(t time.Time) error {
	if s.boot.Value().Time().Equal(t) {
		return nil
	}
	return s.boot.SetValue(source.DateTimeValue(t))
}
