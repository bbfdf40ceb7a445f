package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"video-beeper/domain/audio"
	"video-beeper/domain/submission"
	"video-beeper/domain/video"

	"github.com/google/uuid"
)

// DefaultTimeout bounds a single request to the processing service
const DefaultTimeout = 300 * time.Second

// Session holds the inputs, request state and audio resource of one user
// session. It allows a single in-flight submission at a time and owns the
// live audio resource until it is superseded or the session is closed.
type Session struct {
	processor submission.Processor
	allocator audio.Allocator
	logger    *slog.Logger
	timeout   time.Duration
	newID     func() string

	mu        sync.Mutex
	file      video.SelectedFile
	threshold video.Threshold
	state     submission.State
	errMsg    string
	result    *submission.Result
	closed    bool
}

// Option is a functional option for configuring Session
type Option func(*Session)

// WithTimeout sets the request timeout
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRequestIDFunc overrides request ID generation (for testing)
func WithRequestIDFunc(fn func() string) Option {
	return func(s *Session) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithThreshold sets the initial threshold
func WithThreshold(t video.Threshold) Option {
	return func(s *Session) {
		s.threshold = t
	}
}

// NewSession creates an idle session with the default threshold
func NewSession(processor submission.Processor, allocator audio.Allocator, opts ...Option) *Session {
	s := &Session{
		processor: processor,
		allocator: allocator,
		logger:    slog.New(slog.DiscardHandler),
		timeout:   DefaultTimeout,
		newID:     uuid.NewString,
		threshold: video.DefaultThreshold,
		state:     submission.StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectFile replaces the selected file and clears any error message.
// A nil handle is ignored: a selection can be replaced but not withdrawn.
func (s *Session) SelectFile(file video.SelectedFile) {
	if file == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.file = file
	s.errMsg = ""
	if s.state == submission.StateFailed {
		s.state = submission.StateIdle
	}
}

// SetThreshold stores a threshold already bounded by the input control
func (s *Session) SetThreshold(t video.Threshold) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threshold = t
}

// Threshold returns the current threshold
func (s *Session) Threshold() video.Threshold {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threshold
}

// Timeout returns the request timeout
func (s *Session) Timeout() time.Duration {
	return s.timeout
}

// Submit uploads the selected file and threshold, then decodes the response
// into a new audio resource.
//
// Without a selected file it records a *submission.ValidationError and sends
// nothing. While another submission is loading it returns
// submission.ErrSubmissionInProgress and changes nothing. Any other failure
// leaves the session Failed with a single error message and no result.
func (s *Session) Submit(ctx context.Context) (*submission.Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, submission.ErrSessionClosed
	}
	if s.state == submission.StateLoading {
		s.mu.Unlock()
		return nil, submission.ErrSubmissionInProgress
	}
	if s.file == nil {
		s.errMsg = submission.NoFileMessage
		s.mu.Unlock()
		return nil, &submission.ValidationError{Message: submission.NoFileMessage}
	}

	previous := s.result
	s.result = nil
	s.errMsg = ""
	s.state = submission.StateLoading
	req := submission.Request{
		RequestID: s.newID(),
		File:      s.file,
		Threshold: s.threshold,
	}
	s.mu.Unlock()

	if previous != nil {
		s.release(previous.Resource)
	}

	logger := s.logger.With(
		slog.String("request_id", req.RequestID),
		slog.String("file", req.File.Name()),
		slog.String("threshold", req.Threshold.String()),
	)
	logger.Info("submitting video")
	started := time.Now()

	result, err := s.process(ctx, req, logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		// Close ran while the request was in flight; nothing may outlive it.
		if result != nil {
			s.release(result.Resource)
		}
		return nil, submission.ErrSessionClosed
	}

	if err != nil {
		s.state = submission.StateFailed
		s.errMsg = submission.FailureMessage(err, s.timeout)
		logger.Warn("submission failed",
			slog.String("error_kind", submission.Kind(err)),
			slog.Duration("elapsed", time.Since(started)),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.install(result)
	s.state = submission.StateSucceeded
	logger.Info("submission succeeded",
		slog.Int64("bytes", result.Resource.Size()),
		slog.Int("words", len(result.FlaggedWords)),
		slog.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// process runs the request under the session timeout and decodes the payload
func (s *Session) process(ctx context.Context, req submission.Request, logger *slog.Logger) (*submission.Result, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := s.processor.Process(reqCtx, req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = &submission.TransportError{Err: fmt.Errorf("%w: %v", context.DeadlineExceeded, err)}
		}
		return nil, err
	}
	if payload == nil {
		return nil, &submission.DecodeError{Err: errors.New("empty response")}
	}

	return s.decode(payload, logger)
}

// decode transcodes the audio text to bytes and allocates a resource for it
func (s *Session) decode(payload *submission.Payload, logger *slog.Logger) (*submission.Result, error) {
	enc, err := audio.ParseEncoding(payload.AudioEncoding)
	if err != nil {
		return nil, &submission.DecodeError{Err: err}
	}
	data, err := audio.Decode(payload.Audio, enc)
	if err != nil {
		return nil, &submission.DecodeError{Err: err}
	}

	blob := audio.NewWAVBlob(data)
	info, err := audio.Probe(blob)
	if err != nil {
		logger.Warn("could not read wav header", slog.Any("error", err))
		info = nil
	}

	resource, err := s.allocator.Allocate(blob)
	if err != nil {
		return nil, fmt.Errorf("allocate audio resource: %w", err)
	}

	words := make([]string, len(payload.ProfaneWords))
	copy(words, payload.ProfaneWords)

	return &submission.Result{
		Resource:     resource,
		FlaggedWords: words,
		Info:         info,
	}, nil
}

// install makes result current and releases whatever it supersedes.
// Caller must hold s.mu.
func (s *Session) install(result *submission.Result) {
	previous := s.result
	s.result = result
	if previous != nil && previous.Resource != result.Resource {
		s.release(previous.Resource)
	}
}

func (s *Session) release(res audio.Resource) {
	if res == nil {
		return
	}
	if err := res.Release(); err != nil {
		s.logger.Warn("failed to release audio resource",
			slog.String("resource", res.ID()),
			slog.Any("error", err),
		)
	}
}

// Snapshot returns a consistent copy of the session state
func (s *Session) Snapshot() submission.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := submission.Snapshot{
		State:        s.state,
		Threshold:    s.threshold,
		ErrorMessage: s.errMsg,
	}
	if s.file != nil {
		snap.FileName = s.file.Name()
	}
	if s.state == submission.StateSucceeded && s.result != nil {
		words := make([]string, len(s.result.FlaggedWords))
		copy(words, s.result.FlaggedWords)
		snap.Result = &submission.Result{
			Resource:     s.result.Resource,
			FlaggedWords: words,
			Info:         s.result.Info,
		}
	}
	return snap
}

// Close tears the session down and releases the live audio resource.
// Calling Close more than once is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.result == nil {
		return nil
	}
	res := s.result.Resource
	s.result = nil
	if res == nil {
		return nil
	}
	if err := res.Release(); err != nil {
		return fmt.Errorf("release audio resource: %w", err)
	}
	return nil
}
