package app

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/corewell/fiberflow/create"
	"github.com/corewell/fiberflow/demand"
	"github.com/corewell/fiberflow/events"
	"github.com/corewell/fiberflow/obslog"
	"github.com/corewell/fiberflow/pipelineconfig"
	"github.com/corewell/fiberflow/reactive"
	"github.com/corewell/fiberflow/scheduler"
	"github.com/corewell/fiberflow/transform"

	"github.com/corewell/fiberflow/cmd/fiberflow/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// demoEnv is the set of wired collaborators shared by both demo
// subcommands.
type demoEnv struct {
	opts  *pipelineconfig.Options
	log   zerolog.Logger
	sched *scheduler.Pool
	bus   *events.Bus
	tea   *tea.Program
	stop  func()
}

func setupDemoEnv(a *App, cmd *cobra.Command) (*demoEnv, error) {
	opts, err := pipelineconfig.Load(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("fiberflow: loading config: %w", err)
	}

	level := zerolog.InfoLevel
	if lvl := a.logLevel; lvl != "" {
		if parsed, err := zerolog.ParseLevel(lvl); err == nil {
			level = parsed
		}
	} else if parsed, err := zerolog.ParseLevel(opts.LogLevel); err == nil {
		level = parsed
	}

	var log zerolog.Logger
	if opts.LogFile != "" {
		log = obslog.NewRotating(opts.LogFile, level)
	} else {
		log = obslog.NewConsole(level)
	}

	env := &demoEnv{
		opts:  opts,
		log:   log,
		sched: scheduler.NewPool(opts.MaxWorkers),
		bus:   events.NewBus(64),
		stop:  func() {},
	}

	useTUI := !a.noTUI && term.IsTerminal(int(os.Stdout.Fd()))
	if useTUI {
		model := tui.NewModel(opts.MaxWorkers)
		program := tea.NewProgram(model, tea.WithAltScreen())
		bridge := tui.NewBridge(program)
		stopListen := env.bus.Listen(bridge.Handler())
		env.tea = program

		var runErr error
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, runErr = program.Run()
		}()
		env.stop = func() {
			bridge.SendDone()
			wg.Wait()
			stopListen()
			if runErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "dashboard exited: %v\n", runErr)
			}
		}
	}

	return env, nil
}

func (e *demoEnv) teardown() {
	e.sched.Dispose()
	e.stop()
	e.bus.Close()
}

// blockingSubscriber is a reactive.Subscriber that requests unbounded
// demand up front and signals done on any terminal callback.
type blockingSubscriber[T any] struct {
	log    zerolog.Logger
	onNext func(T)
	done   chan error
}

func newBlockingSubscriber[T any](log zerolog.Logger, onNext func(T)) *blockingSubscriber[T] {
	return &blockingSubscriber[T]{log: log, onNext: onNext, done: make(chan error, 1)}
}

func (s *blockingSubscriber[T]) OnSubscribe(sub reactive.Subscription) {
	sub.Request(demand.Unbounded)
}

func (s *blockingSubscriber[T]) OnNext(item T) {
	if s.onNext != nil {
		s.onNext(item)
	}
}

func (s *blockingSubscriber[T]) OnError(err error) {
	s.log.Error().Err(err).Msg("demo: pipeline failed")
	s.done <- err
}

func (s *blockingSubscriber[T]) OnComplete() {
	s.log.Info().Msg("demo: pipeline complete")
	s.done <- nil
}

// NewDemoCreateCmd runs a finite generator through the create operator.
func NewDemoCreateCmd(a *App) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "demo-create",
		Short: "Emit a bounded sequence through the create operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setupDemoEnv(a, cmd)
			if err != nil {
				return err
			}
			defer env.teardown()

			pub := create.Create[int](func(e create.Emitter[int]) error {
				for i := 1; i <= count; i++ {
					if err := e.Emit(i); err != nil {
						return err
					}
					time.Sleep(50 * time.Millisecond)
				}
				return nil
			}, env.sched,
				create.WithLogger(env.log),
				create.WithEvents(env.bus))

			sub := newBlockingSubscriber[int](env.log, func(v int) {
				env.log.Debug().Int("value", v).Msg("demo: emitted")
			})
			pub.Subscribe(sub)
			return <-sub.done
		},
	}
	cmd.Flags().IntVar(&count, "count", 20, "Number of items the generator emits")
	return cmd
}

// NewDemoTransformCmd runs a generator through a doubling transform
// stage, demonstrating the prefetch/refill watermark.
func NewDemoTransformCmd(a *App) *cobra.Command {
	var count, prefetch int
	cmd := &cobra.Command{
		Use:   "demo-transform",
		Short: "Pipe a bounded sequence through the transform operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setupDemoEnv(a, cmd)
			if err != nil {
				return err
			}
			defer env.teardown()

			upstream := create.Create[int](func(e create.Emitter[int]) error {
				for i := 1; i <= count; i++ {
					if err := e.Emit(i); err != nil {
						return err
					}
				}
				return nil
			}, env.sched, create.WithLogger(env.log))

			pub := transform.Transform[int, int](upstream, func(v int, e transform.Emitter[int]) error {
				time.Sleep(30 * time.Millisecond)
				return e.Emit(v * 2)
			}, prefetch, env.sched,
				transform.WithLogger(env.log),
				transform.WithEvents(env.bus))

			sub := newBlockingSubscriber[int](env.log, func(v int) {
				env.log.Debug().Int("value", v).Msg("demo: transformed")
			})
			pub.Subscribe(sub)
			return <-sub.done
		},
	}
	cmd.Flags().IntVar(&count, "count", 20, "Number of items the upstream generator emits")
	cmd.Flags().IntVar(&prefetch, "prefetch", 8, "Transform prefetch window")
	return cmd
}
