// Voice-ai - voice-driven customer-support assistant.
// Captures speech, transcribes it, reasons with order-lookup tools and
// answers back with synthesized speech, all controllable over HTTP.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Svayampatel/Voice-ai/internal/config"
	"github.com/Svayampatel/Voice-ai/internal/log"
	"github.com/Svayampatel/Voice-ai/pkg/assistant"
	"github.com/Svayampatel/Voice-ai/pkg/audioio"
	"github.com/Svayampatel/Voice-ai/pkg/engine"
	"github.com/Svayampatel/Voice-ai/pkg/stt"
	"github.com/Svayampatel/Voice-ai/pkg/tools"
	"github.com/Svayampatel/Voice-ai/pkg/tts"
	"github.com/Svayampatel/Voice-ai/pkg/web"
)

const systemPrompt = `You are a friendly customer-support voice assistant.
Keep answers short and conversational, they are read aloud.
Use the available tools to look up orders and account details instead of guessing.`

func main() {
	godotenv.Load()

	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	port := flag.String("port", config.WebPort(), "HTTP listen port")
	model := flag.String("model", "gpt-4o-mini", "Reasoning model name")
	flag.Parse()

	level := config.LogLevel()
	if *debug {
		level = "debug"
	}
	log.Init(level)
	logger := log.L()

	// Collaborators degrade to mocks when no credentials are present, so
	// the assistant stays runnable in demos and development.
	eng := buildEngine(*model)
	defer eng.Close()

	synth := buildSynth()
	defer synth.Close()

	transcriber := buildTranscriber()
	defer transcriber.Close()

	source := audioio.NewMockSource(audioio.DefaultConfig(), logger, audioio.WithSineWave(440, 0.3))
	defer source.Close()
	sink := audioio.NewMockSink(logger)
	defer sink.Close()

	dataset := tools.NewDataset()
	registry := tools.NewSupportRegistry(dataset, logger)

	session := eng.NewSession(engine.SessionOptions{
		SystemPrompt: systemPrompt,
		Tools:        registry.Defs(),
	})
	responder := assistant.NewEngineResponder(session, registry, logger)

	var server *web.Server
	pipeline := assistant.NewPipeline(assistant.PipelineConfig{
		Responder:   responder,
		Transcriber: transcriber,
		Synth:       synth,
		Sink:        sink,
		Source:      source,
		Logger:      logger,
		OnState:     func(s assistant.State) { server.PublishState(s) },
		OnMessage:   func(m assistant.TranscriptMessage) { server.PublishMessage(m) },
		OnStatus:    func(code, detail string) { server.PublishStatus(code, detail) },
	})

	server = web.NewServer(*port, pipeline, registry, logger)
	server.StartAsync()

	log.Info("voice assistant ready", "port", *port, "model", *model)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	log.Info("shutting down")
	pipeline.StopPlayback()
	server.Shutdown()
}

// buildEngine returns the real engine client when an API key is
// configured, otherwise a canned mock.
func buildEngine(model string) engine.Engine {
	key := config.EngineAPIKey()
	if key == "" {
		log.Warn("OPENAI_API_KEY not set, using mock reasoning engine")
		return engine.NewMock()
	}

	eng, err := engine.NewClient(
		engine.WithAPIKey(key),
		engine.WithBaseURL(config.EngineBaseURL()),
		engine.WithModel(model),
		engine.WithLogger(log.L()),
	)
	if err != nil {
		log.Warn("engine client init failed, using mock", "error", err)
		return engine.NewMock()
	}
	return eng
}

// buildSynth returns the ElevenLabs provider when configured, otherwise
// a silence-generating mock.
func buildSynth() tts.Provider {
	key := config.ElevenLabsKey()
	voice := config.ElevenLabsVoiceID()
	if key == "" || voice == "" {
		log.Warn("ELEVENLABS_API_KEY or voice not set, using mock synthesis")
		return tts.NewMock()
	}

	provider, err := tts.NewElevenLabs(
		tts.WithAPIKey(key),
		tts.WithVoice(voice),
		tts.WithLogger(log.L()),
	)
	if err != nil {
		log.Warn("tts init failed, using mock", "error", err)
		return tts.NewMock()
	}
	return provider
}

// buildTranscriber returns the whisper client; its default points at a
// local whisper server, so there is no key to check.
func buildTranscriber() stt.Transcriber {
	return stt.NewWhisper(
		stt.WithBaseURL(config.WhisperURL()),
		stt.WithLogger(log.L()),
	)
}
