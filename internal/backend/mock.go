package backend

import "sync"

// Mock is a test double for the native engine.
type Mock struct {
	mu sync.Mutex

	playing  bool
	duration float64

	loadErr      error
	loadFailures int // fail this many Load calls before succeeding
	playErr      error
	playErrOnce  bool // clear playErr after the first rejection
	pauseErr     error
	seekErr      error
	probeErr     error

	deviceAvailable bool
	deviceChanged   bool
	recoverResult   bool
	recoverErr      error

	loadCalls    []string
	playCalls    int
	pauseCalls   int
	stopCalls    int
	seekCalls    []float64
	volumeCalls  []float64
	recoverCalls int

	ticks chan Tick
	ended chan struct{}
}

// NewMock creates a mock backend with an available device.
func NewMock() *Mock {
	return &Mock{
		deviceAvailable: true,
		recoverResult:   true,
		ticks:           make(chan Tick, 16),
		ended:           make(chan struct{}, 1),
	}
}

func (m *Mock) Load(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls = append(m.loadCalls, path)
	if m.loadFailures > 0 {
		m.loadFailures--
		return m.loadErr
	}
	if m.loadErr != nil {
		return m.loadErr
	}
	return nil
}

func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls++
	if m.playErr != nil {
		err := m.playErr
		if m.playErrOnce {
			m.playErr = nil
		}
		return err
	}
	m.playing = true
	return nil
}

func (m *Mock) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCalls++
	if m.pauseErr != nil {
		return m.pauseErr
	}
	m.playing = false
	return nil
}

func (m *Mock) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	m.playing = false
	return nil
}

func (m *Mock) Seek(seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, seconds)
	return m.seekErr
}

func (m *Mock) SetVolume(v float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumeCalls = append(m.volumeCalls, v)
	return nil
}

func (m *Mock) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) IsPlaying() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.probeErr != nil {
		return false, m.probeErr
	}
	return m.playing, nil
}

func (m *Mock) IsDeviceAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deviceAvailable
}

func (m *Mock) HasDeviceChanged() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deviceChanged
}

func (m *Mock) Recover() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoverCalls++
	return m.recoverResult, m.recoverErr
}

func (m *Mock) Ticks() <-chan Tick { return m.ticks }

func (m *Mock) Ended() <-chan struct{} { return m.ended }

func (m *Mock) Close() error { return nil }

// Test helpers

func (m *Mock) SetDuration(d float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

func (m *Mock) SetLoadError(err error, failures int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
	m.loadFailures = failures
}

func (m *Mock) SetPlayError(err error, once bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
	m.playErrOnce = once
}

func (m *Mock) SetPauseError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseErr = err
}

func (m *Mock) SetProbeError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probeErr = err
}

func (m *Mock) SetDeviceAvailable(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deviceAvailable = ok
}

func (m *Mock) SetDeviceChanged(changed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deviceChanged = changed
}

func (m *Mock) SetRecoverResult(ok bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoverResult = ok
	m.recoverErr = err
}

func (m *Mock) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loadCalls...)
}

func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *Mock) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

func (m *Mock) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}

func (m *Mock) SeekCalls() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.seekCalls...)
}

func (m *Mock) VolumeCalls() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.volumeCalls...)
}

func (m *Mock) RecoverCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recoverCalls
}

// SimulateTick delivers a progress report as the native engine would.
func (m *Mock) SimulateTick(t Tick) {
	select {
	case m.ticks <- t:
	default:
	}
}

// SimulateEnded signals that the loaded track played to completion.
func (m *Mock) SimulateEnded() {
	select {
	case m.ended <- struct{}{}:
	default:
	}
}

// Verify Mock implements Backend at compile time.
var _ Backend = (*Mock)(nil)
