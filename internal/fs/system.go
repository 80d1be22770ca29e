package fs

import (
	"context"
	"sync"
	"time"

	"github.com/justyntemme/filedrap/internal/debug"
)

type OpType int

const (
	ScanDir OpType = iota
	CancelScan
)

type Request struct {
	Op       OpType
	Path     string
	FolderID string // folder the scan was dispatched for
	Options  Options
	Gen      int64 // Generation counter to track stale requests
}

type Response struct {
	Op        OpType
	Path      string
	FolderID  string
	Result    Result
	Err       error
	Gen       int64         // Generation counter from request
	Cancelled bool          // True if a newer request or CancelScan superseded this scan
	Duration  time.Duration // Wall time spent in the scan
}

// ScanFunc performs one scan. System.Scan defaults to Scan.
type ScanFunc func(ctx context.Context, root string, opts Options) (Result, error)

// System runs directory scans off the caller's goroutine. Only the most
// recent ScanDir request is live: a new one cancels the previous scan.
type System struct {
	RequestChan  chan Request
	ResponseChan chan Response

	// Scan can be replaced before Start, e.g. to slow scans down in tests.
	Scan ScanFunc

	cancelMu   sync.Mutex
	cancelFunc context.CancelFunc
	currentGen int64

	wg sync.WaitGroup
}

func NewSystem() *System {
	return &System{
		RequestChan:  make(chan Request, 10),
		ResponseChan: make(chan Response, 10),
		Scan:         Scan,
	}
}

// Start processes requests until RequestChan is closed, then waits for any
// running scan and closes ResponseChan.
func (s *System) Start() {
	for req := range s.RequestChan {
		debug.Log(debug.FS, "Request: op=%d path=%q folder=%s gen=%d", req.Op, req.Path, req.FolderID, req.Gen)

		switch req.Op {
		case CancelScan:
			s.cancelCurrent()
			// No response for cancel - the scan goroutine reports Cancelled

		case ScanDir:
			s.cancelMu.Lock()
			if s.cancelFunc != nil {
				debug.Log(debug.FS, "Cancelling scan gen %d for gen %d", s.currentGen, req.Gen)
				s.cancelFunc()
			}
			ctx, cancel := context.WithCancel(context.Background())
			s.cancelFunc = cancel
			s.currentGen = req.Gen
			s.cancelMu.Unlock()

			s.wg.Add(1)
			go s.run(ctx, cancel, req)
		}
	}

	s.cancelCurrent()
	s.wg.Wait()
	close(s.ResponseChan)
}

// Stop closes RequestChan. No requests may be sent afterwards.
func (s *System) Stop() {
	close(s.RequestChan)
}

func (s *System) run(ctx context.Context, cancel context.CancelFunc, req Request) {
	defer s.wg.Done()

	start := time.Now()
	result, err := s.Scan(ctx, req.Path, req.Options)
	resp := Response{
		Op:       ScanDir,
		Path:     req.Path,
		FolderID: req.FolderID,
		Result:   result,
		Err:      err,
		Gen:      req.Gen,
		Duration: time.Since(start),
	}
	if ctx.Err() != nil {
		resp.Cancelled = true
		resp.Result = Result{}
		resp.Err = nil
		debug.Log(debug.FS, "Scan cancelled (gen %d)", req.Gen)
	}

	s.cancelMu.Lock()
	if s.currentGen == req.Gen {
		s.cancelFunc = nil
	}
	s.cancelMu.Unlock()
	cancel()

	debug.Log(debug.FS, "ScanDir response: path=%q entries=%d gen=%d cancelled=%v err=%v",
		resp.Path, len(resp.Result.Entries), resp.Gen, resp.Cancelled, resp.Err)
	s.ResponseChan <- resp
}

func (s *System) cancelCurrent() {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	if s.cancelFunc != nil {
		debug.Log(debug.FS, "Cancelling current scan (gen %d)", s.currentGen)
		s.cancelFunc()
		s.cancelFunc = nil
	}
}
