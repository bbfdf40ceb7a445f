//go:build integration

package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	appsubmission "video-beeper/application/submission"
	"video-beeper/cmd"
	"video-beeper/domain/audio"
	"video-beeper/domain/submission"
	"video-beeper/domain/video"
	"video-beeper/infrastructure/backend"
	"video-beeper/infrastructure/download"
	"video-beeper/infrastructure/filesystem"
	"video-beeper/infrastructure/resource"

	"github.com/cucumber/godog"
)

// fakeService stands in for the processing service
type fakeService struct {
	mu        sync.Mutex
	status    int
	body      string
	delay     time.Duration
	requests  []receivedUpload
	serverURL string
}

type receivedUpload struct {
	fileName    string
	contentType string
	size        int
	threshold   string
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upload := receivedUpload{threshold: r.FormValue("threshold")}
	if file, header, err := r.FormFile("file"); err == nil {
		data, _ := io.ReadAll(file)
		file.Close()
		upload.fileName = header.Filename
		upload.contentType = header.Header.Get("Content-Type")
		upload.size = len(data)
	}

	f.mu.Lock()
	f.requests = append(f.requests, upload)
	status, body, delay := f.status, f.body, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(delay):
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func (f *fakeService) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type submitContext struct {
	tempDir   string
	service   *fakeService
	server    *httptest.Server
	allocator *resource.MemoryAllocator
	session   *appsubmission.Session
	timeout   time.Duration
	submitErr error
	output    bytes.Buffer
	cmdErr    error
}

// SharedSubmitContext is reset before each scenario
var SharedSubmitContext = &submitContext{}

func InitializeSubmitScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "submit-test-*")
		if err != nil {
			return c, err
		}
		SharedSubmitContext = &submitContext{
			tempDir:   tempDir,
			allocator: resource.NewMemoryAllocator(),
			timeout:   5 * time.Second,
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		s := SharedSubmitContext
		if s.session != nil {
			s.session.Close()
		}
		if s.server != nil {
			s.server.Close()
		}
		if s.tempDir != "" {
			os.RemoveAll(s.tempDir)
		}
		return c, nil
	})

	// Indirection so each step sees the context created by Before
	ctx.Step(`^the processing service is running$`, func() error { return SharedSubmitContext.theProcessingServiceIsRunning() })
	ctx.Step(`^the service returns (\d+) bytes of audio and the words "([^"]*)"$`, func(n int, words string) error {
		return SharedSubmitContext.theServiceReturnsAudio(n, words)
	})
	ctx.Step(`^the service returns (\d+) bytes of audio and no words$`, func(n int) error {
		return SharedSubmitContext.theServiceReturnsAudio(n, "")
	})
	ctx.Step(`^the service responds with status (\d+)$`, func(code int) error { return SharedSubmitContext.theServiceRespondsWithStatus(code) })
	ctx.Step(`^the service responds with body "([^"]*)"$`, func(body string) error { return SharedSubmitContext.theServiceRespondsWithBody(body) })
	ctx.Step(`^the service takes longer than the timeout$`, func() error { return SharedSubmitContext.theServiceIsSlow() })
	ctx.Step(`^the request timeout is (\d+) milliseconds$`, func(ms int) error { return SharedSubmitContext.theRequestTimeoutIs(ms) })
	ctx.Step(`^I (?:have selected|select) the video "([^"]*)"$`, func(name string) error { return SharedSubmitContext.iSelectTheVideo(name) })
	ctx.Step(`^I submit with threshold "([^"]*)"$`, func(t string) error { return SharedSubmitContext.iSubmitWithThreshold(t) })
	ctx.Step(`^I close the session$`, func() error { return SharedSubmitContext.iCloseTheSession() })
	ctx.Step(`^I run the submit command for "([^"]*)" with threshold "([^"]*)"$`, func(name, t string) error {
		return SharedSubmitContext.iRunTheSubmitCommand(name, t, false)
	})
	ctx.Step(`^I run the submit command for "([^"]*)" with threshold "([^"]*)" and download$`, func(name, t string) error {
		return SharedSubmitContext.iRunTheSubmitCommand(name, t, true)
	})

	ctx.Step(`^the service should have received the file "([^"]*)" with threshold "([^"]*)"$`, func(name, t string) error {
		return SharedSubmitContext.theServiceShouldHaveReceived(name, t)
	})
	ctx.Step(`^the service should not have been called$`, func() error { return SharedSubmitContext.theServiceShouldNotHaveBeenCalled() })
	ctx.Step(`^the request state should be "([^"]*)"$`, func(state string) error { return SharedSubmitContext.theRequestStateShouldBe(state) })
	ctx.Step(`^the beeped audio should be (\d+) bytes long$`, func(n int) error { return SharedSubmitContext.theBeepedAudioShouldBe(n) })
	ctx.Step(`^the beeped audio should be a (\d+) Hz WAV$`, func(rate int) error { return SharedSubmitContext.theBeepedAudioShouldBeWAV(rate) })
	ctx.Step(`^no beeped audio should be available$`, func() error { return SharedSubmitContext.noBeepedAudioShouldBeAvailable() })
	ctx.Step(`^the flagged words should be "([^"]*)"$`, func(words string) error { return SharedSubmitContext.theFlaggedWordsShouldBe(words) })
	ctx.Step(`^there should be no flagged words$`, func() error { return SharedSubmitContext.theFlaggedWordsShouldBe("") })
	ctx.Step(`^the error "([^"]*)" should be shown$`, func(msg string) error { return SharedSubmitContext.theErrorShouldBeShown(msg, true) })
	ctx.Step(`^an error starting with "([^"]*)" should be shown$`, func(msg string) error { return SharedSubmitContext.theErrorShouldBeShown(msg, false) })
	ctx.Step(`^no error should be shown$`, func() error { return SharedSubmitContext.noErrorShouldBeShown() })
	ctx.Step(`^(\d+) audio resources? should have been allocated$`, func(n int) error { return SharedSubmitContext.resourcesAllocated(n) })
	ctx.Step(`^(\d+) audio resources? should have been released$`, func(n int) error { return SharedSubmitContext.resourcesReleased(n) })
	ctx.Step(`^(\d+) audio resources? should be live$`, func(n int) error { return SharedSubmitContext.resourcesLive(n) })
	ctx.Step(`^the command output should contain "([^"]*)"$`, func(text string) error { return SharedSubmitContext.theCommandOutputShouldContain(text) })
	ctx.Step(`^the command should fail$`, func() error { return SharedSubmitContext.theCommandShouldFail() })
	ctx.Step(`^the file "([^"]*)" should exist in the download directory$`, func(name string) error {
		return SharedSubmitContext.theFileShouldExistInDownloads(name)
	})
}

func (s *submitContext) theProcessingServiceIsRunning() error {
	s.service = &fakeService{status: http.StatusOK, body: `{"audio": "", "profane_words": []}`}
	s.server = httptest.NewServer(s.service)
	s.service.serverURL = s.server.URL
	return nil
}

// latin1Audio builds a WAV of n bytes and returns it as the service
// encodes it: one character per byte
func latin1Audio(n int) string {
	data := make([]byte, n)
	copy(data, wavHeader(16000, n-44))
	for i := 44; i < n; i++ {
		data[i] = byte(i)
	}
	runes := make([]rune, n)
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

// wavHeader returns a 44 byte PCM header for 16-bit mono audio
func wavHeader(sampleRate, dataSize int) []byte {
	if dataSize < 0 {
		dataSize = 0
	}
	h := make([]byte, 44)
	copy(h[0:], "RIFF")
	putLE32(h[4:], uint32(36+dataSize))
	copy(h[8:], "WAVE")
	copy(h[12:], "fmt ")
	putLE32(h[16:], 16)
	putLE16(h[20:], 1)
	putLE16(h[22:], 1)
	putLE32(h[24:], uint32(sampleRate))
	putLE32(h[28:], uint32(sampleRate*2))
	putLE16(h[32:], 2)
	putLE16(h[34:], 16)
	copy(h[36:], "data")
	putLE32(h[40:], uint32(dataSize))
	return h
}

func putLE32(b []byte, v uint32) {
	b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
}

func putLE16(b []byte, v uint16) {
	b[0], b[1] = byte(v), byte(v>>8)
}

func (s *submitContext) theServiceReturnsAudio(n int, words string) error {
	body, err := json.Marshal(map[string]any{
		"audio":         latin1Audio(n),
		"profane_words": splitWords(words),
	})
	if err != nil {
		return err
	}
	s.service.mu.Lock()
	defer s.service.mu.Unlock()
	s.service.status = http.StatusOK
	s.service.body = string(body)
	return nil
}

func (s *submitContext) theServiceRespondsWithStatus(code int) error {
	s.service.mu.Lock()
	defer s.service.mu.Unlock()
	s.service.status = code
	s.service.body = `{"detail": "processing failed"}`
	return nil
}

func (s *submitContext) theServiceRespondsWithBody(body string) error {
	s.service.mu.Lock()
	defer s.service.mu.Unlock()
	s.service.status = http.StatusOK
	s.service.body = body
	return nil
}

func (s *submitContext) theServiceIsSlow() error {
	s.service.mu.Lock()
	defer s.service.mu.Unlock()
	s.service.delay = 5 * time.Second
	return nil
}

func (s *submitContext) theRequestTimeoutIs(ms int) error {
	s.timeout = time.Duration(ms) * time.Millisecond
	return nil
}

func (s *submitContext) ensureSession() (*appsubmission.Session, error) {
	if s.session != nil {
		return s.session, nil
	}
	client, err := backend.NewClient(s.server.URL, backend.DefaultEndpointPath)
	if err != nil {
		return nil, err
	}
	s.session = appsubmission.NewSession(client, s.allocator, appsubmission.WithTimeout(s.timeout))
	return s.session, nil
}

func (s *submitContext) writeVideo(name string) (string, error) {
	path := filepath.Join(s.tempDir, name)
	if err := os.WriteFile(path, []byte("fake mp4 content for "+name), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *submitContext) iSelectTheVideo(name string) error {
	path, err := s.writeVideo(name)
	if err != nil {
		return err
	}
	file, err := filesystem.OpenVideo(path)
	if err != nil {
		return err
	}
	session, err := s.ensureSession()
	if err != nil {
		return err
	}
	session.SelectFile(file)
	return nil
}

func (s *submitContext) iSubmitWithThreshold(value string) error {
	threshold, err := video.ParseThreshold(value)
	if err != nil {
		return err
	}
	session, err := s.ensureSession()
	if err != nil {
		return err
	}
	session.SetThreshold(threshold)
	_, s.submitErr = session.Submit(context.Background())
	return nil
}

func (s *submitContext) iCloseTheSession() error {
	if s.session == nil {
		return fmt.Errorf("no session to close")
	}
	return s.session.Close()
}

func (s *submitContext) iRunTheSubmitCommand(name, threshold string, save bool) error {
	path, err := s.writeVideo(name)
	if err != nil {
		return err
	}
	client, err := backend.NewClient(s.server.URL, backend.DefaultEndpointPath)
	if err != nil {
		return err
	}

	deps := cmd.SubmitDependencies{
		Processor:  client,
		Allocator:  s.allocator,
		Downloader: download.NewSaver(),
		Prompter:   NewMockPrompter(nil, nil),
		OpenVideo: func(p string) (video.SelectedFile, error) {
			f, err := filesystem.OpenVideo(p)
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
	opts := cmd.SubmitOptions{
		FilePath:         path,
		Threshold:        threshold,
		DefaultThreshold: video.DefaultThreshold,
		Timeout:          s.timeout,
		Download:         save,
		OutputDir:        filepath.Join(s.tempDir, "downloads"),
		Filename:         audio.DefaultDownloadName,
	}
	s.cmdErr = cmd.RunSubmitWithDependencies(context.Background(), deps, opts, &s.output)
	return nil
}

func (s *submitContext) snapshot() (submission.Snapshot, error) {
	if s.session == nil {
		session, err := s.ensureSession()
		if err != nil {
			return submission.Snapshot{}, err
		}
		return session.Snapshot(), nil
	}
	return s.session.Snapshot(), nil
}

func (s *submitContext) theServiceShouldHaveReceived(name, threshold string) error {
	s.service.mu.Lock()
	defer s.service.mu.Unlock()
	if len(s.service.requests) == 0 {
		return fmt.Errorf("service received no requests")
	}
	last := s.service.requests[len(s.service.requests)-1]
	if last.fileName != name {
		return fmt.Errorf("expected file %q, got %q", name, last.fileName)
	}
	if last.contentType != video.MimeTypeMP4 {
		return fmt.Errorf("expected content type %q, got %q", video.MimeTypeMP4, last.contentType)
	}
	if last.size == 0 {
		return fmt.Errorf("file part was empty")
	}
	if last.threshold != threshold {
		return fmt.Errorf("expected threshold %q, got %q", threshold, last.threshold)
	}
	return nil
}

func (s *submitContext) theServiceShouldNotHaveBeenCalled() error {
	if n := s.service.requestCount(); n != 0 {
		return fmt.Errorf("expected no requests, got %d", n)
	}
	return nil
}

func (s *submitContext) theRequestStateShouldBe(expected string) error {
	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	if snap.State.String() != expected {
		return fmt.Errorf("expected state %q, got %q", expected, snap.State)
	}
	return nil
}

func (s *submitContext) theBeepedAudioShouldBe(n int) error {
	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	if snap.Result == nil {
		return fmt.Errorf("no result available (state %s, error %q)", snap.State, snap.ErrorMessage)
	}
	res := snap.Result.Resource
	if res.MIMEType() != audio.MimeTypeWAV {
		return fmt.Errorf("expected %s, got %s", audio.MimeTypeWAV, res.MIMEType())
	}
	if res.Size() != int64(n) {
		return fmt.Errorf("expected %d bytes, got %d", n, res.Size())
	}
	return nil
}

func (s *submitContext) theBeepedAudioShouldBeWAV(rate int) error {
	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	if snap.Result == nil || snap.Result.Info == nil {
		return fmt.Errorf("no probe information available")
	}
	if snap.Result.Info.SampleRate != rate {
		return fmt.Errorf("expected %d Hz, got %d", rate, snap.Result.Info.SampleRate)
	}
	return nil
}

func (s *submitContext) noBeepedAudioShouldBeAvailable() error {
	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	if snap.Result != nil {
		return fmt.Errorf("expected no result, got %s", snap.Result.Resource.Location())
	}
	if s.allocator.Live() != 0 {
		return fmt.Errorf("expected no live audio resources, got %d", s.allocator.Live())
	}
	return nil
}

func (s *submitContext) theFlaggedWordsShouldBe(words string) error {
	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	got := strings.Join(snap.FlaggedWords(), ", ")
	if got != words {
		return fmt.Errorf("expected flagged words %q, got %q", words, got)
	}
	return nil
}

func (s *submitContext) theErrorShouldBeShown(msg string, exact bool) error {
	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	if snap.View() != submission.ViewError {
		return fmt.Errorf("expected the error view, state is %s", snap.State)
	}
	if exact && snap.ErrorMessage != msg {
		return fmt.Errorf("expected error %q, got %q", msg, snap.ErrorMessage)
	}
	if !exact && !strings.HasPrefix(snap.ErrorMessage, msg) {
		return fmt.Errorf("expected error starting with %q, got %q", msg, snap.ErrorMessage)
	}
	return nil
}

func (s *submitContext) noErrorShouldBeShown() error {
	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	if snap.ErrorMessage != "" {
		return fmt.Errorf("expected no error, got %q", snap.ErrorMessage)
	}
	return nil
}

func (s *submitContext) resourcesAllocated(n int) error {
	if got := s.allocator.Allocated(); got != n {
		return fmt.Errorf("expected %d allocations, got %d", n, got)
	}
	return nil
}

func (s *submitContext) resourcesReleased(n int) error {
	if got := s.allocator.Released(); got != n {
		return fmt.Errorf("expected %d releases, got %d", n, got)
	}
	return nil
}

func (s *submitContext) resourcesLive(n int) error {
	if got := s.allocator.Live(); got != n {
		return fmt.Errorf("expected %d live resources, got %d", n, got)
	}
	return nil
}

func (s *submitContext) theCommandOutputShouldContain(text string) error {
	if !strings.Contains(s.output.String(), text) {
		return fmt.Errorf("output does not contain %q:\n%s", text, s.output.String())
	}
	return nil
}

func (s *submitContext) theCommandShouldFail() error {
	if s.cmdErr == nil {
		return fmt.Errorf("expected the command to fail")
	}
	return nil
}

func (s *submitContext) theFileShouldExistInDownloads(name string) error {
	info, err := os.Stat(filepath.Join(s.tempDir, "downloads", name))
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty", name)
	}
	return nil
}

func splitWords(words string) []string {
	if strings.TrimSpace(words) == "" {
		return []string{}
	}
	parts := strings.Split(words, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
