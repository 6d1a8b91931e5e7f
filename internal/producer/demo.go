package producer

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/como-monitor/como/internal/logger"
	"github.com/como-monitor/como/internal/source"
)

// DefaultDemoInterval is how often the demo sources change.
const DefaultDemoInterval = 300 * time.Millisecond

const (
	DemoIntSource      = "test::int.source"
	DemoDoubleSource   = "test::double.source"
	DemoDateTimeSource = "test::date.time.source"
)

// Demo publishes three sources: an int that counts up by one, a double
// that grows by 1.1 and a date & time that follows the wall clock at
// second resolution.
type Demo struct {
	pub      source.Publisher
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time

	ints     *source.Source
	doubles  *source.Source
	dateTime *source.Source
}

func NewDemo(pub source.Publisher, interval time.Duration, log *slog.Logger) *Demo {
	if interval <= 0 {
		interval = DefaultDemoInterval
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Demo{
		pub:      pub,
		interval: interval,
		log:      log.With(logger.Component("producer.demo")),
		now:      time.Now,
	}
}

func (d *Demo) Name() string { return "demo" }

// Run binds the demo sources and updates them every interval until ctx is
// done.
func (d *Demo) Run(ctx context.Context) error {
	d.open()
	d.log.Info("demo sources published", logger.Duration(d.interval))
	return tick(ctx, d.log, d.interval, []*source.Source{d.ints, d.doubles, d.dateTime}, func(context.Context) error {
		return d.step()
	})
}

func (d *Demo) open() {
	d.ints = source.New(DemoIntSource, DemoIntSource,
		"this is integer source", source.IntValue(0), d.pub)
	d.doubles = source.New(DemoDoubleSource, DemoDoubleSource,
		"this is double source", source.DoubleValue(0), d.pub)
	d.dateTime = source.New(DemoDateTimeSource, DemoDateTimeSource,
		"this is date & time source", source.DateTimeValue(d.now().Truncate(time.Second)), d.pub)
}

func (d *Demo) step() error {
	n := d.ints.Value().Int()
	next := int32(0)
	if n < math.MaxInt32 {
		next = int32(n + 1)
	}
	if err := d.ints.SetValue(source.IntValue(next)); err != nil {
		return err
	}
	if err := d.doubles.SetValue(source.DoubleValue(d.doubles.Value().Float() + 1.1)); err != nil {
		return err
	}
	return d.dateTime.SetValue(source.DateTimeValue(d.now().Truncate(time.Second)))
}
