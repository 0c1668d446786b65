package faces

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"threadfinder/logger"
)

type pythonStarter func(script string) (stdin io.WriteCloser, stdout io.ReadCloser, wait func() error, err error)

// pythonProcess is one helper script instance, started on first use and stopped when idle
type pythonProcess struct {
	id       int
	mutex    sync.Mutex
	running  bool
	stdin    io.WriteCloser
	stdout   io.ReadCloser
	reader   *bufio.Reader
	wait     func() error
	lastUsed time.Time
}

// PythonEngine drives the face_recognition library through one or more helper scripts.
// Requests are single JSON lines, answers too.
type PythonEngine struct {
	Script      string
	Model       string // "hog" or "cnn"
	IdleTimeout time.Duration

	start     pythonStarter
	processes []*pythonProcess
	idle      chan *pythonProcess
	done      chan struct{}
	closeOnce sync.Once
}

type pythonRequest struct {
	Cmd       string  `json:"cmd"`
	Path      string  `json:"path"`
	Model     string  `json:"model,omitempty"`
	Locations BoxList `json:"locations,omitempty"`
}

func NewPythonEngine(script string, cnn bool, processes int) *PythonEngine {
	e := newPythonEngine(script, cnn, processes, startPythonScript)
	go e.backgroundChecker(10 * time.Second)
	return e
}

func newPythonEngine(script string, cnn bool, processes int, start pythonStarter) *PythonEngine {
	if processes < 1 {
		processes = 1
	}
	e := &PythonEngine{
		Script:      script,
		Model:       "hog",
		IdleTimeout: 20 * time.Second,
		start:       start,
		idle:        make(chan *pythonProcess, processes),
		done:        make(chan struct{}),
	}
	if cnn {
		e.Model = "cnn"
	}
	for i := 0; i < processes; i++ {
		p := &pythonProcess{id: i}
		e.processes = append(e.processes, p)
		e.idle <- p
	}
	return e
}

func (e *PythonEngine) Name() string {
	return "python-" + e.Model
}

func (e *PythonEngine) Detect(ctx context.Context, img *Image) (BoxList, error) {
	result, err := e.request(ctx, pythonRequest{Cmd: "detect", Path: img.Path, Model: e.Model})
	if err != nil {
		return nil, err
	}
	return result.Locations, nil
}

func (e *PythonEngine) Encode(ctx context.Context, img *Image, boxes BoxList) (EncodingList, error) {
	if len(boxes) == 0 {
		return EncodingList{}, nil
	}
	result, err := e.request(ctx, pythonRequest{Cmd: "encode", Path: img.Path, Locations: boxes})
	if err != nil {
		return nil, err
	}
	return result.Encodings, nil
}

func (e *PythonEngine) Close() error {
	e.closeOnce.Do(func() {
		close(e.done)
		for _, p := range e.processes {
			p.mutex.Lock()
			if p.running {
				p.shutdown()
			}
			p.mutex.Unlock()
		}
	})
	return nil
}

func (e *PythonEngine) acquire(ctx context.Context) (*pythonProcess, error) {
	select {
	case <-e.done:
		return nil, ErrEngineStopped
	default:
	}
	select {
	case p := <-e.idle:
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.done:
		return nil, ErrEngineStopped
	}
}

func (e *PythonEngine) request(ctx context.Context, req pythonRequest) (result FaceDetectionResult, err error) {
	p, err := e.acquire(ctx)
	if err != nil {
		return result, err
	}
	defer func() { e.idle <- p }()

	data, err := json.Marshal(req)
	if err != nil {
		return result, err
	}
	p.mutex.Lock()
	if !p.running {
		if err = p.startWith(e.start, e.Script); err != nil {
			p.mutex.Unlock()
			return result, err
		}
	}
	p.lastUsed = time.Now()
	line, err := p.writeAndRead(data)
	p.mutex.Unlock()
	if err != nil {
		return result, err
	}

	if err = json.Unmarshal(line, &result); err != nil {
		return result, fmt.Errorf("%w: %v", ErrEngineResponse, err)
	}
	if result.Error != "" {
		return result, fmt.Errorf("face helper: %s", result.Error)
	}
	return result, nil
}

func (e *PythonEngine) backgroundChecker(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
		}
		for _, p := range e.processes {
			// Busy processes are obviously alive
			if !p.mutex.TryLock() {
				continue
			}
			if p.running {
				if time.Since(p.lastUsed) > e.IdleTimeout {
					p.shutdown()
				} else if line, err := p.writeAndRead([]byte("ping")); err == nil && string(line) != "pong" {
					p.shutdown()
				}
			}
			p.mutex.Unlock()
		}
	}
}

// startWith must be called with the mutex held
func (p *pythonProcess) startWith(start pythonStarter, script string) error {
	logger.Log.WithField("worker", p.id).Info("Starting face helper script...")
	stdin, stdout, wait, err := start(script)
	if err != nil {
		return fmt.Errorf("starting face helper: %w", err)
	}
	p.stdin = stdin
	p.stdout = stdout
	p.reader = bufio.NewReaderSize(stdout, 256*1024)
	p.wait = wait
	p.running = true
	return nil
}

// shutdown must be called with the mutex held
func (p *pythonProcess) shutdown() {
	p.running = false
	p.stdin.Close()
	p.stdout.Close()
	wait := p.wait
	p.stdin = nil
	p.stdout = nil
	p.reader = nil
	p.wait = nil
	if wait != nil {
		go func() {
			if err := wait(); err != nil {
				logger.Log.WithField("worker", p.id).Debugf("Face helper exited: %v", err)
			}
		}()
	}
	logger.Log.WithField("worker", p.id).Info("Face helper script stopped")
}

// writeAndRead sends a single line and returns the single line answer, without the newline
func (p *pythonProcess) writeAndRead(line []byte) ([]byte, error) {
	if _, err := p.stdin.Write(append(line, '\n')); err != nil {
		p.shutdown()
		return nil, fmt.Errorf("writing to face helper: %w", err)
	}
	result, err := p.reader.ReadBytes('\n')
	if err != nil {
		p.shutdown()
		return nil, fmt.Errorf("reading from face helper: %w", err)
	}
	result = bytes.TrimRight(result, "\r\n")
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: empty result", ErrEngineResponse)
	}
	return result, nil
}

func startPythonScript(script string) (io.WriteCloser, io.ReadCloser, func() error, error) {
	cmd := exec.Command("python3", "-u", script)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, nil, nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		return nil, nil, nil, err
	}
	if err = cmd.Start(); err != nil {
		stdin.Close()
		return nil, nil, nil, err
	}
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			logger.Log.WithField("script", script).Warn(scanner.Text())
		}
	}()
	return stdin, stdout, cmd.Wait, nil
}
