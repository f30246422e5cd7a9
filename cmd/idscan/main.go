package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/idscan/internal/capture"
	"github.com/zombor/idscan/internal/document"
	"github.com/zombor/idscan/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("idscan")
	var (
		port            = fs.IntLong("port", 8080, "HTTP server port")
		dbPath          = fs.StringLong("db", "idscan.db", "Database file path")
		storagePath     = fs.StringLong("storage", "./scans", "Storage directory path")
		engineType      = fs.StringLong("engine", "tesseract", "OCR engine: 'tesseract', 'gemini', 'ollama' or 'vision'")
		tesseractLang   = fs.StringLong("tesseract-lang", "eng", "Tesseract language code")
		geminiKey       = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel     = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL       = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel     = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, bakllava, qwen2-vl)")
		visionCreds     = fs.StringLong("vision-credentials", "", "Google Cloud credentials file for the vision engine (optional)")
		captureInterval = fs.DurationLong("capture-interval", capture.DefaultInterval, "Sampling interval for capture sessions")
		requiredFrames  = fs.IntLong("required-frames", capture.DefaultRequiredGoodFrames, "Consecutive good frames before auto capture")
		minBrightness   = fs.Float64Long("min-brightness", capture.DefaultMinBrightness, "Minimum mean brightness for a good frame (0-255)")
		minBlur         = fs.Float64Long("min-blur", capture.DefaultMinBlur, "Minimum sharpness score for a good frame")
		authUser        = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass        = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion     = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("IDSCAN"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := document.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize the OCR engine
	var engine scanning.Engine
	switch *engineType {
	case "tesseract":
		slog.Info("Initializing tesseract engine...", "lang", *tesseractLang)
		engine = scanning.NewTesseract(*tesseractLang)
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini engine...", "model", *geminiModel)
		engine, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama engine...", "url", *ollamaURL, "model", *ollamaModel)
		engine, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	case "vision":
		slog.Info("Initializing Cloud Vision engine...")
		engine, err = scanning.NewVision(context.Background(), *visionCreds)
		if err != nil {
			slog.Error("Failed to initialize Cloud Vision", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid engine type", "type", *engineType, "valid", "tesseract, gemini, ollama or vision")
		os.Exit(1)
	}
	defer engine.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := document.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Load profiles (built-in plus stored custom ones)
	profiles, err := document.NewProfileStore(db)
	if err != nil {
		slog.Error("Failed to load profiles", "error", err)
		os.Exit(1)
	}

	// Initialize service and capture sessions
	service := document.NewService(db, document.NewScanner(engine), store, profiles)
	gateDefaults := capture.Config{
		Interval:           *captureInterval,
		RequiredGoodFrames: *requiredFrames,
		MinBrightness:      *minBrightness,
		MinBlur:            *minBlur,
	}
	sessions := document.NewSessionManager(service, gateDefaults)
	defer sessions.Close()

	// Initialize server
	basicAuth := document.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := document.NewServer(service, sessions, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "engine", *engineType)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
