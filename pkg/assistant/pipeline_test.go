package assistant

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Svayampatel/Voice-ai/pkg/audioio"
	"github.com/Svayampatel/Voice-ai/pkg/engine"
	"github.com/Svayampatel/Voice-ai/pkg/stt"
	"github.com/Svayampatel/Voice-ai/pkg/tools"
	"github.com/Svayampatel/Voice-ai/pkg/tts"
)

// funcResponder adapts a bare function into a Responder for tests.
type funcResponder func(ctx context.Context, text string) (*Answer, error)

func (f funcResponder) Ask(ctx context.Context, text string) (*Answer, error) {
	return f(ctx, text)
}

// testRig bundles a pipeline with its mock collaborators.
type testRig struct {
	pipeline    *Pipeline
	transcriber *stt.Mock
	synth       *tts.Mock
	sink        *audioio.MockSink
	source      *audioio.MockSource
	statuses    *[]string
}

func newTestRig(t *testing.T, r Responder) *testRig {
	t.Helper()

	transcriber := stt.NewMock("where is my order?")
	synth := tts.NewMock()
	sink := audioio.NewMockSink(nil)
	source := audioio.NewMockSource(audioio.DefaultConfig(), nil, audioio.WithSineWave(440, 0.3))

	statuses := []string{}
	p := NewPipeline(PipelineConfig{
		Responder:     r,
		Transcriber:   transcriber,
		Synth:         synth,
		Sink:          sink,
		Source:        source,
		ErrorRecovery: 50 * time.Millisecond,
		MinAudioBytes: 64,
		OnStatus:      func(code, _ string) { statuses = append(statuses, code) },
	})
	return &testRig{
		pipeline:    p,
		transcriber: transcriber,
		synth:       synth,
		sink:        sink,
		source:      source,
		statuses:    &statuses,
	}
}

func okResponder(text string, toolUsed bool, latencyMs int64) Responder {
	return funcResponder(func(ctx context.Context, _ string) (*Answer, error) {
		return &Answer{Text: text, ToolUsed: toolUsed, LatencyMs: latencyMs}, nil
	})
}

func waitState(t *testing.T, p *Pipeline, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return p.State() == want },
		time.Second, 2*time.Millisecond, "waiting for state %s, at %s", want, p.State())
}

func TestVoiceTurnMetricsBreakdown(t *testing.T) {
	rig := newTestRig(t, okResponder("It shipped yesterday.", true, 50))
	rig.transcriber.TranscribeFunc = func(ctx context.Context, audio []byte, mimeType string) (*stt.Result, error) {
		return &stt.Result{Text: "where is order A1001?", LatencyMs: 120}, nil
	}
	rig.synth.SynthesizeFunc = func(ctx context.Context, text string) (*tts.AudioResult, error) {
		return &tts.AudioResult{
			Audio:     make([]byte, 3200),
			Format:    tts.AudioFormat{Encoding: tts.EncodingPCM16, SampleRate: 16000, Channels: 1, BitDepth: 16},
			LatencyMs: 80,
		}, nil
	}

	err := rig.pipeline.RunVoiceTurn(context.Background(), make([]byte, 8000), "audio/wav")
	require.NoError(t, err)
	waitState(t, rig.pipeline, StateIdle)

	snap := rig.pipeline.Analytics().Snapshot()
	assert.Equal(t, 1, snap.TotalQueries)
	assert.Equal(t, 1, snap.BackendCallCount)
	require.NotNil(t, snap.LastTurnMetrics)
	assert.EqualValues(t, 120, snap.LastTurnMetrics.STTMillis)
	assert.EqualValues(t, 50, snap.LastTurnMetrics.LLMMillis)
	assert.EqualValues(t, 80, snap.LastTurnMetrics.TTSMillis)
	assert.EqualValues(t, 250, snap.LastTurnMetrics.TotalMillis)
	assert.True(t, snap.LastTurnMetrics.ToolUsed)
	assert.InDelta(t, 250, snap.AvgResponseTimeMillis, 1e-9)
}

func TestVoiceTurnWithoutToolDoesNotCountBackendCall(t *testing.T) {
	rig := newTestRig(t, okResponder("Hello!", false, 10))

	require.NoError(t, rig.pipeline.RunVoiceTurn(context.Background(), make([]byte, 8000), "audio/wav"))
	waitState(t, rig.pipeline, StateIdle)

	assert.Equal(t, 0, rig.pipeline.Analytics().Snapshot().BackendCallCount)
}

func TestAudioTooShortNeverReachesTranscriber(t *testing.T) {
	rig := newTestRig(t, okResponder("hi", false, 1))

	err := rig.pipeline.RunVoiceTurn(context.Background(), make([]byte, 10), "audio/wav")
	require.ErrorIs(t, err, ErrAudioTooShort)

	assert.Equal(t, StateIdle, rig.pipeline.State())
	assert.Equal(t, 0, rig.transcriber.CallCount("Transcribe"))
	assert.Equal(t, 0, rig.pipeline.Transcript().Len())
	assert.Equal(t, 0, rig.pipeline.Analytics().Snapshot().TotalQueries)
	assert.Contains(t, *rig.statuses, StatusTooShort)
}

func TestNoSpeechAbortsBeforeReasoning(t *testing.T) {
	reasonCalls := 0
	rig := newTestRig(t, funcResponder(func(ctx context.Context, _ string) (*Answer, error) {
		reasonCalls++
		return &Answer{Text: "hi"}, nil
	}))
	rig.transcriber.TranscribeFunc = func(ctx context.Context, audio []byte, mimeType string) (*stt.Result, error) {
		return &stt.Result{Text: stt.NoSpeechSentinel, LatencyMs: 30}, nil
	}

	err := rig.pipeline.RunVoiceTurn(context.Background(), make([]byte, 8000), "audio/wav")
	require.ErrorIs(t, err, ErrNoSpeech)

	assert.Equal(t, StateIdle, rig.pipeline.State())
	assert.Equal(t, 0, rig.pipeline.Transcript().Len())
	assert.Equal(t, 0, reasonCalls)
	assert.Contains(t, *rig.statuses, StatusNoSpeech)
}

func TestTranscriptionFailureEntersErrorAndRecovers(t *testing.T) {
	rig := newTestRig(t, okResponder("hi", false, 1))
	rig.transcriber.TranscribeFunc = func(ctx context.Context, audio []byte, mimeType string) (*stt.Result, error) {
		return nil, errors.New("whisper down")
	}

	err := rig.pipeline.RunVoiceTurn(context.Background(), make([]byte, 8000), "audio/wav")
	require.Error(t, err)

	assert.Equal(t, StateError, rig.pipeline.State())
	assert.Equal(t, 0, rig.pipeline.Transcript().Len())

	waitState(t, rig.pipeline, StateIdle)
}

func TestEngineFailureStillCompletesTurn(t *testing.T) {
	// The real responder absorbs engine failures into a canned apology,
	// so the turn must run through synthesis and playback normally.
	registry := tools.NewSupportRegistry(tools.NewDataset(), nil)
	session := engine.NewMockWithError(errors.New("engine down")).NewSession(engine.SessionOptions{})
	rig := newTestRig(t, NewEngineResponder(session, registry, nil))

	err := rig.pipeline.RunTurn(context.Background(), "hello?", 0)
	require.NoError(t, err)
	waitState(t, rig.pipeline, StateIdle)

	msgs := rig.pipeline.Transcript().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, apologyReply, msgs[1].Text)
	assert.False(t, msgs[1].UsedTool)
	assert.EqualValues(t, 1, rig.sink.ChunksPlayed(), "apology should still play")
}

func TestResponderContractViolationIsFatal(t *testing.T) {
	rig := newTestRig(t, funcResponder(func(ctx context.Context, _ string) (*Answer, error) {
		return nil, errors.New("contract broken")
	}))

	err := rig.pipeline.RunTurn(context.Background(), "hello", 0)
	require.Error(t, err)

	assert.Equal(t, StateError, rig.pipeline.State())

	// Only the user message landed; no assistant message for a dead turn.
	msgs := rig.pipeline.Transcript().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleUser, msgs[0].Role)

	waitState(t, rig.pipeline, StateIdle)
}

func TestReentrancyGuardRejectsConcurrentTurn(t *testing.T) {
	release := make(chan struct{})
	rig := newTestRig(t, funcResponder(func(ctx context.Context, _ string) (*Answer, error) {
		<-release
		return &Answer{Text: "done"}, nil
	}))

	turnErr := make(chan error, 1)
	go func() {
		turnErr <- rig.pipeline.RunTurn(context.Background(), "first", 0)
	}()
	waitState(t, rig.pipeline, StateReasoning)

	err := rig.pipeline.RunTurn(context.Background(), "second", 0)
	require.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, StateReasoning, rig.pipeline.State())
	assert.Equal(t, 1, rig.pipeline.Transcript().Len(), "rejected turn must not append")

	close(release)
	require.NoError(t, <-turnErr)
	waitState(t, rig.pipeline, StateIdle)
	assert.Equal(t, 2, rig.pipeline.Transcript().Len())
}

func TestSingleFlightUnderContention(t *testing.T) {
	// Hammer the guard from many goroutines: the responder must never be
	// observed in flight twice, and every admitted turn must append
	// exactly one user/assistant pair.
	var inFlight, maxInFlight atomic.Int32
	rig := newTestRig(t, funcResponder(func(ctx context.Context, _ string) (*Answer, error) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return &Answer{Text: "ok"}, nil
	}))

	var wg sync.WaitGroup
	var accepted, rejected atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				err := rig.pipeline.RunTurn(context.Background(), "hello", 0)
				switch {
				case err == nil:
					accepted.Add(1)
				case errors.Is(err, ErrBusy):
					rejected.Add(1)
				default:
					t.Errorf("unexpected turn error: %v", err)
				}
			}
		}()
	}
	wg.Wait()
	waitState(t, rig.pipeline, StateIdle)

	assert.EqualValues(t, 1, maxInFlight.Load(), "two turns ran concurrently")
	require.Positive(t, accepted.Load())
	assert.Positive(t, rejected.Load())
	assert.Equal(t, int(accepted.Load())*2, rig.pipeline.Transcript().Len(),
		"each admitted turn appends one user and one assistant message")
	assert.Equal(t, int(accepted.Load()), rig.pipeline.Analytics().Snapshot().TotalQueries)
}

// stateReadingSink wraps the mock sink with a Stop hook, so a test can
// have Stop call back into the pipeline the way a real device callback
// might.
type stateReadingSink struct {
	*audioio.MockSink
	onStop func()
}

func (s *stateReadingSink) Stop() error {
	if s.onStop != nil {
		s.onStop()
	}
	return s.MockSink.Stop()
}

func TestInterruptingTurnStopsSinkOutsideLock(t *testing.T) {
	// A sink's Stop may itself consult the pipeline, so the pipeline
	// lock must never be held across the call.
	sink := &stateReadingSink{MockSink: audioio.NewMockSink(nil)}
	p := NewPipeline(PipelineConfig{
		Responder:     okResponder("a long reply that keeps playing", false, 1),
		Transcriber:   stt.NewMock("x"),
		Synth:         tts.NewMock(),
		Sink:          sink,
		Source:        audioio.NewMockSource(audioio.DefaultConfig(), nil),
		ErrorRecovery: 50 * time.Millisecond,
		MinAudioBytes: 64,
	})
	stops := 0
	var seen State
	sink.onStop = func() {
		stops++
		seen = p.State() // deadlocks if Stop runs under the pipeline lock
	}
	sink.SpeedFactor = 1 // real-time pacing so the first reply stays playing

	require.NoError(t, p.RunTurn(context.Background(), "first", 0))
	require.Equal(t, StatePlaying, p.State())

	done := make(chan error, 1)
	go func() { done <- p.RunTurn(context.Background(), "second", 0) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("interrupting turn deadlocked while stopping playback")
	}

	assert.Equal(t, 1, stops)
	assert.Equal(t, StateIdle, seen)
	assert.Equal(t, 4, p.Transcript().Len())

	p.StopPlayback()
	assert.Equal(t, StateIdle, p.State())
}

func TestStopPlaybackWhenIdleIsNoOp(t *testing.T) {
	rig := newTestRig(t, okResponder("hi", false, 1))

	rig.pipeline.StopPlayback()

	assert.Equal(t, StateIdle, rig.pipeline.State())
	assert.Equal(t, 0, rig.pipeline.Transcript().Len())
}

func TestStopPlaybackInterruptsAudio(t *testing.T) {
	rig := newTestRig(t, okResponder("a long reply that keeps playing", false, 1))
	rig.sink.SpeedFactor = 1 // real-time pacing so playback persists

	require.NoError(t, rig.pipeline.RunTurn(context.Background(), "talk to me", 0))
	require.Equal(t, StatePlaying, rig.pipeline.State())

	rig.pipeline.StopPlayback()

	assert.Equal(t, StateIdle, rig.pipeline.State())
	assert.False(t, rig.sink.Playing())
}

func TestCancelDuringReasoningSuppressesPlayback(t *testing.T) {
	// Policy: a stop raised mid-reasoning skips synthesis and playback,
	// but the assistant's reply still lands in the transcript.
	release := make(chan struct{})
	rig := newTestRig(t, funcResponder(func(ctx context.Context, _ string) (*Answer, error) {
		<-release
		return &Answer{Text: "too late"}, nil
	}))

	turnErr := make(chan error, 1)
	go func() {
		turnErr <- rig.pipeline.RunTurn(context.Background(), "hello", 0)
	}()
	waitState(t, rig.pipeline, StateReasoning)

	rig.pipeline.StopPlayback()
	close(release)
	require.NoError(t, <-turnErr)
	waitState(t, rig.pipeline, StateIdle)

	assert.Equal(t, 2, rig.pipeline.Transcript().Len())
	assert.Equal(t, 0, rig.synth.CallCount("Synthesize"))
	assert.EqualValues(t, 0, rig.sink.ChunksPlayed())
}

func TestSynthesisFailureDegradesToTextOnly(t *testing.T) {
	rig := newTestRig(t, okResponder("still useful", false, 5))
	rig.synth.SynthesizeFunc = func(ctx context.Context, text string) (*tts.AudioResult, error) {
		return nil, errors.New("tts down")
	}

	err := rig.pipeline.RunTurn(context.Background(), "hello", 0)
	require.NoError(t, err)
	waitState(t, rig.pipeline, StateIdle)

	msgs := rig.pipeline.Transcript().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "still useful", msgs[1].Text)
	assert.EqualValues(t, 0, rig.sink.ChunksPlayed())
	assert.Contains(t, *rig.statuses, StatusSynthesisDegraded)
	assert.Equal(t, 1, rig.pipeline.Analytics().Snapshot().TotalQueries)
}

func TestSilentReplySkipsPlayback(t *testing.T) {
	rig := newTestRig(t, okResponder("  ", false, 5))

	require.NoError(t, rig.pipeline.RunTurn(context.Background(), "hello", 0))
	waitState(t, rig.pipeline, StateIdle)

	assert.EqualValues(t, 0, rig.sink.ChunksPlayed())
	assert.Equal(t, 2, rig.pipeline.Transcript().Len())
}

func TestRecordingLifecycle(t *testing.T) {
	rig := newTestRig(t, okResponder("It shipped.", true, 5))

	require.NoError(t, rig.pipeline.StartRecording(context.Background()))
	assert.Equal(t, StateCapturing, rig.pipeline.State())

	// Let the mock source emit a few 100ms chunks.
	require.Eventually(t, func() bool { return rig.source.ChunksRead() >= 2 },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, rig.pipeline.StopRecording(context.Background()))
	waitState(t, rig.pipeline, StateIdle)

	assert.Equal(t, 1, rig.transcriber.CallCount("Transcribe"))
	assert.Equal(t, 2, rig.pipeline.Transcript().Len())
}

func TestStopRecordingWhenNotCapturingIsNoOp(t *testing.T) {
	rig := newTestRig(t, okResponder("hi", false, 1))

	require.NoError(t, rig.pipeline.StopRecording(context.Background()))
	assert.Equal(t, StateIdle, rig.pipeline.State())
	assert.Equal(t, 0, rig.transcriber.CallCount("Transcribe"))
}

func TestCaptureStartFailureClassified(t *testing.T) {
	rig := newTestRig(t, okResponder("hi", false, 1))
	rig.source.FailWith = audioio.ErrPermissionDenied

	err := rig.pipeline.StartRecording(context.Background())
	require.Error(t, err)

	assert.Equal(t, StateError, rig.pipeline.State())
	assert.Contains(t, *rig.statuses, StatusCaptureDenied)
	assert.Equal(t, 0, rig.pipeline.Transcript().Len())

	waitState(t, rig.pipeline, StateIdle)
}

func TestNewTurnFromErrorState(t *testing.T) {
	rig := newTestRig(t, okResponder("recovered", false, 1))
	rig.source.FailWith = audioio.ErrNoDevice

	require.Error(t, rig.pipeline.StartRecording(context.Background()))
	require.Equal(t, StateError, rig.pipeline.State())

	// A fresh turn may begin straight from the error display state.
	require.NoError(t, rig.pipeline.RunTurn(context.Background(), "try again", 0))
	waitState(t, rig.pipeline, StateIdle)
	assert.Equal(t, 2, rig.pipeline.Transcript().Len())
}
