package service

import (
	"context"
	"time"

	"coolerctl/internal/controller"
	"coolerctl/internal/models"
	"coolerctl/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Cooler exposes the control operations. Every call is applied atomically
// between control cycles, never mid-evaluation.
type Cooler interface {
	SetManual(ctx context.Context, on bool) error
	SetAuto(ctx context.Context) error
	SetPIDEnabled(ctx context.Context, on bool) error
	SetThresholds(ctx context.Context, startC, stopC float64) error
	SetStartThreshold(ctx context.Context, startC float64) error
	SetStopThreshold(ctx context.Context, stopC float64) error
	SetPIDParams(ctx context.Context, p controller.PIDParams) error
	ResetPID(ctx context.Context) error
	Reset(ctx context.Context) error
	PublishTelemetry(ctx context.Context) error
}

// Monitoring exposes the read-only status snapshot.
type Monitoring interface {
	Snapshot(ctx context.Context) (models.Snapshot, error)
}

// EventLog exposes the append-only operational log with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.CoolerEvent, error)
}

// Control runs the sampling loop. Stop via context cancellation in main()
// for graceful shutdown.
type Control interface {
	Run(ctx context.Context, tick time.Duration)
}

// LogFilter narrows the event listing by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "START", "STOP", "MODE_CHANGE", "CONFIG", "ERROR", "RESET"
}

// Service aggregates all sub-services behind one composition root.
type Service struct {
	Cooler
	Monitoring
	EventLog
	Control
	Authorization
}

// NewService wires the repository layer and control-loop dependencies into
// concrete services. The same ControlService instance backs Cooler,
// Monitoring and Control.
func NewService(repos *repository.Repository, deps ControlDeps, signingKey string) *Service {
	ctl := NewControlService(deps, repos.Events)
	return &Service{
		Cooler:        ctl,
		Monitoring:    ctl,
		Control:       ctl,
		EventLog:      NewEventLogService(repos.Events),
		Authorization: NewAuthService(repos.Auth, signingKey),
	}
}
