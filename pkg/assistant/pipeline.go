package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Svayampatel/Voice-ai/internal/metrics"
	"github.com/Svayampatel/Voice-ai/pkg/audioio"
	"github.com/Svayampatel/Voice-ai/pkg/stt"
	"github.com/Svayampatel/Voice-ai/pkg/tts"
)

const (
	// defaultErrorRecovery is how long the error state is displayed
	// before the pipeline auto-recovers to idle.
	defaultErrorRecovery = 4 * time.Second

	// defaultMinAudioBytes rejects captures below ~100ms of 16kHz mono
	// PCM16 before any transcription call is made.
	defaultMinAudioBytes = 3200
)

// PipelineConfig wires the pipeline's collaborators and callbacks.
type PipelineConfig struct {
	Responder   Responder
	Transcriber stt.Transcriber
	Synth       tts.Provider
	Sink        audioio.Sink
	Source      audioio.Source

	Logger *slog.Logger

	// ErrorRecovery overrides the error-state display timeout.
	ErrorRecovery time.Duration

	// MinAudioBytes overrides the too-short capture threshold.
	MinAudioBytes int

	// OnState is invoked on every state transition.
	OnState func(State)

	// OnMessage is invoked for every transcript append.
	OnMessage func(TranscriptMessage)

	// OnStatus is invoked with a short classified code when a turn ends
	// abnormally or degrades.
	OnStatus func(code, detail string)
}

// Pipeline orchestrates one full user turn: capture, transcription,
// reasoning, synthesis and playback, with analytics and the transcript
// log updated along the way. At most one turn is in flight at a time.
type Pipeline struct {
	responder   Responder
	transcriber stt.Transcriber
	synth       tts.Provider
	sink        audioio.Sink
	capture     *CaptureController
	transcript  *TranscriptLog
	analytics   *Analytics
	logger      *slog.Logger

	errorRecovery time.Duration
	minAudioBytes int

	onState   func(State)
	onMessage func(TranscriptMessage)
	onStatus  func(code, detail string)

	mu        sync.Mutex
	state     State
	active    bool
	gen       int64
	cancelled bool
}

// NewPipeline creates a pipeline in the idle state.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recovery := cfg.ErrorRecovery
	if recovery <= 0 {
		recovery = defaultErrorRecovery
	}
	minBytes := cfg.MinAudioBytes
	if minBytes <= 0 {
		minBytes = defaultMinAudioBytes
	}

	return &Pipeline{
		responder:     cfg.Responder,
		transcriber:   cfg.Transcriber,
		synth:         cfg.Synth,
		sink:          cfg.Sink,
		capture:       NewCaptureController(cfg.Source, logger),
		transcript:    NewTranscriptLog(),
		analytics:     NewAnalytics(),
		logger:        logger.With("component", "assistant.pipeline"),
		errorRecovery: recovery,
		minAudioBytes: minBytes,
		onState:       cfg.OnState,
		onMessage:     cfg.OnMessage,
		onStatus:      cfg.OnStatus,
		state:         StateIdle,
	}
}

// State returns the current pipeline phase.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Transcript returns the append-only conversation log.
func (p *Pipeline) Transcript() *TranscriptLog {
	return p.transcript
}

// Analytics returns the cumulative latency accumulator.
func (p *Pipeline) Analytics() *Analytics {
	return p.analytics
}

// RunTurn runs one text turn: the user text is logged immediately, the
// responder produces a reply, the reply is synthesized and played back.
// sttLatency is folded into the turn's analytics for voice-originated
// turns; pass 0 for typed or suggested input.
func (p *Pipeline) RunTurn(ctx context.Context, userText string, sttLatency time.Duration) error {
	if err := p.beginTurn(); err != nil {
		return err
	}
	return p.runTurnBody(ctx, userText, sttLatency)
}

// RunVoiceTurn runs one voice turn from a finished audio payload.
func (p *Pipeline) RunVoiceTurn(ctx context.Context, audio []byte, mimeType string) error {
	if err := p.beginTurn(); err != nil {
		return err
	}
	return p.runVoiceBody(ctx, audio, mimeType)
}

// StartRecording acquires the microphone and moves to capturing.
func (p *Pipeline) StartRecording(ctx context.Context) error {
	if err := p.beginTurn(); err != nil {
		return err
	}
	p.setState(StateCapturing)

	if err := p.capture.Start(ctx); err != nil {
		code := ClassifyCaptureError(err)
		p.logger.Error("capture start failed", "code", code, "error", err)
		metrics.Errors.WithLabelValues("capturing", code).Inc()
		p.status(code, err.Error())
		p.enterError()
		return err
	}
	return nil
}

// StopRecording finalizes the capture and runs the voice turn on the
// buffered payload. Stopping while not capturing is a no-op.
func (p *Pipeline) StopRecording(ctx context.Context) error {
	payload, err := p.capture.Stop()
	if err != nil {
		return nil // not capturing
	}

	cfg := p.capture.source.Config()
	mimeType := fmt.Sprintf("audio/pcm;rate=%d", cfg.SampleRate)
	return p.runVoiceBody(ctx, payload, mimeType)
}

// StopPlayback halts active playback and forces idle. During a
// pre-playback phase it raises the cancel flag instead: the in-flight
// call runs to completion, its result is not played, and the assistant
// transcript entry still lands. Always safe to call; stopping when
// nothing is playing leaves the state unchanged.
func (p *Pipeline) StopPlayback() {
	p.mu.Lock()
	switch p.state {
	case StatePlaying:
		p.gen++
		p.state = StateIdle
		p.mu.Unlock()
		p.sink.Stop()
		p.notifyState(StateIdle)
	case StateTranscribing, StateReasoning, StateSynthesizing:
		p.cancelled = true
		p.mu.Unlock()
	default:
		p.mu.Unlock()
		p.sink.Stop()
	}
}

// beginTurn is the re-entrancy guard: a new turn may start only from
// idle, error or playing (playing is interrupted). Capturing is not a
// valid entry here because StopRecording continues the capture turn.
// The turn is claimed via the active flag inside the critical section,
// so a second caller queued on the mutex is rejected even though the
// displayed state has not moved off idle yet. The claim is released by
// endTurn/releaseTurn/enterError when the turn terminates.
func (p *Pipeline) beginTurn() error {
	p.mu.Lock()
	if p.active {
		p.mu.Unlock()
		metrics.TurnsRejected.Inc()
		return ErrBusy
	}
	switch p.state {
	case StateIdle, StateError, StatePlaying:
		// ok
	default:
		p.mu.Unlock()
		metrics.TurnsRejected.Inc()
		return ErrBusy
	}
	wasPlaying := p.state == StatePlaying
	p.active = true
	p.gen++
	p.cancelled = false
	p.state = StateIdle
	p.mu.Unlock()

	// The sink is a collaborator; never call it under the pipeline lock.
	// The claim above keeps other turns out during the stop.
	if wasPlaying {
		p.sink.Stop()
	}
	return nil
}

// endTurn moves to a terminal state and releases the turn claim.
func (p *Pipeline) endTurn(s State) {
	p.mu.Lock()
	p.active = false
	p.state = s
	p.mu.Unlock()
	p.notifyState(s)
}

// releaseTurn releases the claim without touching the displayed state.
func (p *Pipeline) releaseTurn() {
	p.mu.Lock()
	p.active = false
	p.mu.Unlock()
}

// runVoiceBody validates, transcribes and delegates to runTurnBody.
// The caller must already hold the turn (beginTurn or an active capture).
func (p *Pipeline) runVoiceBody(ctx context.Context, audio []byte, mimeType string) error {
	if len(audio) < p.minAudioBytes {
		p.logger.Info("audio too short, skipping transcription",
			"bytes", len(audio), "min_bytes", p.minAudioBytes)
		metrics.AudioTooShort.Inc()
		p.status(StatusTooShort, "")
		p.endTurn(StateIdle)
		return ErrAudioTooShort
	}

	p.setState(StateTranscribing)
	start := time.Now()

	result, err := p.transcriber.Transcribe(ctx, audio, mimeType)
	if err != nil {
		p.logger.Error("transcription failed", "error", err)
		metrics.Errors.WithLabelValues("transcribing", "transcriber").Inc()
		p.status(StatusTranscribeFailed, err.Error())
		p.enterError()
		return fmt.Errorf("transcribe: %w", err)
	}
	metrics.StageDuration.WithLabelValues("transcribing").Observe(time.Since(start).Seconds())

	if stt.IsNoSpeech(result.Text) {
		p.logger.Info("no speech detected")
		metrics.NoSpeech.Inc()
		p.status(StatusNoSpeech, "")
		p.endTurn(StateIdle)
		return ErrNoSpeech
	}

	sttLatency := time.Duration(result.LatencyMs) * time.Millisecond
	return p.runTurnBody(ctx, strings.TrimSpace(result.Text), sttLatency)
}

// runTurnBody is the core turn sequence: log user text, reason,
// synthesize, fold analytics, play back, log the assistant reply.
func (p *Pipeline) runTurnBody(ctx context.Context, userText string, sttLatency time.Duration) error {
	// The user's words are preserved even if everything after fails.
	p.appendMessage(RoleUser, userText, false)

	p.setState(StateReasoning)
	reasonStart := time.Now()

	answer, err := p.responder.Ask(ctx, userText)
	if err != nil {
		// The responder contract absorbs engine failures; a non-nil
		// error means the contract was violated and the turn is dead.
		p.logger.Error("responder contract violation", "error", err)
		metrics.Errors.WithLabelValues("reasoning", "contract").Inc()
		p.status(StatusEngineFailed, err.Error())
		p.enterError()
		return fmt.Errorf("responder: %w", err)
	}
	metrics.StageDuration.WithLabelValues("reasoning").Observe(time.Since(reasonStart).Seconds())
	llmMillis := answer.LatencyMs

	var audio *tts.AudioResult
	var ttsMillis int64

	if !p.isCancelled() {
		p.setState(StateSynthesizing)
		synthStart := time.Now()

		audio, err = p.synth.Synthesize(ctx, answer.Text)
		ttsMillis = time.Since(synthStart).Milliseconds()
		if audio != nil && audio.LatencyMs > 0 {
			ttsMillis = audio.LatencyMs
		}
		if err != nil {
			// Non-fatal: the turn degrades to text only.
			p.logger.Warn("synthesis failed, continuing without audio", "error", err)
			metrics.Errors.WithLabelValues("synthesizing", "synth").Inc()
			p.status(StatusSynthesisDegraded, err.Error())
			audio = nil
		}
		metrics.StageDuration.WithLabelValues("synthesizing").Observe(float64(ttsMillis) / 1000)
	}

	sttMillis := sttLatency.Milliseconds()
	turn := TurnMetrics{
		STTMillis:   sttMillis,
		LLMMillis:   llmMillis,
		TTSMillis:   ttsMillis,
		TotalMillis: sttMillis + llmMillis + ttsMillis,
		ToolUsed:    answer.ToolUsed,
	}
	backendCalls := 0
	if answer.ToolUsed {
		backendCalls = 1
	}
	p.analytics.Fold(FoldInput{
		Queries:      1,
		TotalMillis:  turn.TotalMillis,
		BackendCalls: backendCalls,
		Latency:      &turn,
	})
	metrics.TurnsTotal.Inc()

	p.startPlayback(ctx, audio)

	// Appended after playback is initiated, not after it completes, so
	// the visible transcript updates while audio is still playing.
	p.appendMessage(RoleAssistant, answer.Text, answer.ToolUsed)

	// Playback, if any, continues on its own; the turn itself is over
	// and the next one may interrupt it.
	p.releaseTurn()

	p.logger.Info("turn complete",
		"stt_ms", sttMillis,
		"llm_ms", llmMillis,
		"tts_ms", ttsMillis,
		"total_ms", turn.TotalMillis,
		"tool_used", answer.ToolUsed,
	)
	return nil
}

// startPlayback plays the synthesized buffer if there is one and the
// turn was not cancelled; otherwise the pipeline goes straight to idle.
func (p *Pipeline) startPlayback(ctx context.Context, audio *tts.AudioResult) {
	if audio == nil || len(audio.Audio) == 0 || p.isCancelled() {
		p.setState(StateIdle)
		return
	}

	channels := audio.Format.Channels
	if channels == 0 {
		channels = 1
	}
	var chunk audioio.AudioChunk
	chunk.FromBytes(audio.Audio, audio.Format.SampleRate, channels)

	p.setState(StatePlaying)

	done, err := p.sink.Play(ctx, chunk)
	if err != nil {
		// Non-fatal: the reply text still lands in the transcript.
		p.logger.Warn("playback failed", "error", err)
		metrics.Errors.WithLabelValues("playing", "sink").Inc()
		p.status(StatusPlaybackFailed, err.Error())
		p.setState(StateIdle)
		return
	}

	p.mu.Lock()
	gen := p.gen
	p.mu.Unlock()

	go func() {
		select {
		case <-done:
		case <-ctx.Done():
		}
		p.mu.Lock()
		if p.gen != gen || p.state != StatePlaying {
			p.mu.Unlock()
			return
		}
		p.state = StateIdle
		p.mu.Unlock()
		p.notifyState(StateIdle)
	}()
}

// enterError moves to the error display state and schedules recovery to
// idle. A newer turn or stop invalidates the pending recovery.
func (p *Pipeline) enterError() {
	p.mu.Lock()
	p.active = false
	p.gen++
	gen := p.gen
	p.state = StateError
	p.mu.Unlock()
	p.notifyState(StateError)

	time.AfterFunc(p.errorRecovery, func() {
		p.mu.Lock()
		if p.gen != gen || p.state != StateError {
			p.mu.Unlock()
			return
		}
		p.state = StateIdle
		p.mu.Unlock()
		p.notifyState(StateIdle)
	})
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	p.notifyState(s)
}

func (p *Pipeline) notifyState(s State) {
	if p.onState != nil {
		p.onState(s)
	}
}

func (p *Pipeline) appendMessage(role Role, text string, usedTool bool) {
	msg := p.transcript.Append(role, text, usedTool)
	if p.onMessage != nil {
		p.onMessage(msg)
	}
}

func (p *Pipeline) status(code, detail string) {
	if p.onStatus != nil {
		p.onStatus(code, detail)
	}
}

func (p *Pipeline) isCancelled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled
}
