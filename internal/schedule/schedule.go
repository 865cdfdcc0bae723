package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/ironsheep/ambient-extractor/internal/ambient"
	"github.com/ironsheep/ambient-extractor/internal/config"
)

// DefaultJobTimeout bounds one scheduled run.
const DefaultJobTimeout = time.Minute

// TurnOner runs the extraction pipeline and dispatches the light action.
type TurnOner interface {
	TurnOn(ctx context.Context, req *ambient.Request) (*ambient.Outcome, error)
}

// Scheduler runs configured ambient_turn_on requests on cron specs.
type Scheduler struct {
	cron    *cron.Cron
	svc     TurnOner
	timeout time.Duration
}

// New builds a Scheduler for the given schedules. Every schedule's spec and
// params are validated up front so a bad entry fails at startup.
func New(svc TurnOner, schedules []config.Schedule, timeout time.Duration) (*Scheduler, error) {
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}

	logger := cronLogger{}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		svc:     svc,
		timeout: timeout,
	}

	for i, sc := range schedules {
		name := sc.Name
		if name == "" {
			name = fmt.Sprintf("schedule-%d", i)
		}
		job, err := s.newJob(name, sc.Params)
		if err != nil {
			return nil, err
		}
		if _, err := s.cron.AddJob(sc.Spec, job); err != nil {
			return nil, fmt.Errorf("schedule %s: invalid spec %q: %w", name, sc.Spec, err)
		}
	}
	return s, nil
}

// Len returns the number of registered entries.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Run starts the scheduler and blocks until ctx is done and running jobs
// have finished.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	log.Info().Int("entries", s.Len()).Msg("scheduler started")
	<-ctx.Done()
	<-s.cron.Stop().Done()
}

// job is one scheduled request.
type job struct {
	name    string
	params  map[string]any
	svc     TurnOner
	timeout time.Duration
}

func (s *Scheduler) newJob(name string, params map[string]any) (*job, error) {
	if _, err := ambient.ParseRequest(params); err != nil {
		return nil, fmt.Errorf("schedule %s: %w", name, err)
	}
	return &job{name: name, params: params, svc: s.svc, timeout: s.timeout}, nil
}

// Run implements cron.Job.
func (j *job) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	if err := j.run(ctx); err != nil {
		log.Error().Err(err).Str("schedule", j.name).Msg("scheduled turn on failed")
	}
}

func (j *job) run(ctx context.Context) error {
	req, err := ambient.ParseRequest(j.params)
	if err != nil {
		return err
	}
	out, err := j.svc.TurnOn(ctx, req)
	if err != nil {
		return err
	}
	log.Debug().Str("schedule", j.name).Str("color", out.Result.Color.Hex).Msg("scheduled turn on")
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
