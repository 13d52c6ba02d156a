package handlers

import (
	"context"
	"net/http"
	"time"

	"coolerctl/internal/controller"
	"coolerctl/internal/models"
	"coolerctl/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockCooler struct {
	err error

	lastManualOn   bool
	lastPIDEnabled bool
	lastStartC     float64
	lastStopC      float64
	lastParams     controller.PIDParams

	manualCalls    int
	autoCalls      int
	pidModeCalls   int
	thresholdCalls int
	paramCalls     int
	pidResetCalls  int
	resetCalls     int
	publishCalls   int
}

func (m *mockCooler) SetManual(ctx context.Context, on bool) error {
	m.manualCalls++
	m.lastManualOn = on
	return m.err
}
func (m *mockCooler) SetAuto(ctx context.Context) error {
	m.autoCalls++
	return m.err
}
func (m *mockCooler) SetPIDEnabled(ctx context.Context, on bool) error {
	m.pidModeCalls++
	m.lastPIDEnabled = on
	return m.err
}
func (m *mockCooler) SetThresholds(ctx context.Context, startC, stopC float64) error {
	m.thresholdCalls++
	m.lastStartC, m.lastStopC = startC, stopC
	return m.err
}
func (m *mockCooler) SetStartThreshold(ctx context.Context, startC float64) error {
	m.lastStartC = startC
	return m.err
}
func (m *mockCooler) SetStopThreshold(ctx context.Context, stopC float64) error {
	m.lastStopC = stopC
	return m.err
}
func (m *mockCooler) SetPIDParams(ctx context.Context, p controller.PIDParams) error {
	m.paramCalls++
	m.lastParams = p
	return m.err
}
func (m *mockCooler) ResetPID(ctx context.Context) error {
	m.pidResetCalls++
	return m.err
}
func (m *mockCooler) Reset(ctx context.Context) error {
	m.resetCalls++
	return m.err
}
func (m *mockCooler) PublishTelemetry(ctx context.Context) error {
	m.publishCalls++
	return m.err
}

type mockMonitoring struct {
	snap models.Snapshot
	err  error
}

func (m *mockMonitoring) Snapshot(ctx context.Context) (models.Snapshot, error) {
	return m.snap, m.err
}

type mockEventLog struct {
	resp     []models.CoolerEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.CoolerEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
