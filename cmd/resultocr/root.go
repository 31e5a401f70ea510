package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/adverant/nexus/resultocr-worker/internal/config"
	"github.com/adverant/nexus/resultocr-worker/internal/logging"
)

var (
	envFile     string
	inputDir    string
	outputPath  string
	backend     string
	ocrCommand  string
	levelMarker string
)

var rootCmd = &cobra.Command{
	Use:   "resultocr",
	Short: "Extract title, level and capture time from result-screen screenshots into a CSV report",
	Long: `resultocr scans a directory of result-screen screenshots (PNG/JPG/JPEG),
recognizes the text on each, classifies fragments by their position on the
screen and writes one CSV row per image:

  title,level,creation_date

Images that cannot be read or recognized are logged and skipped; the report
is still written for the rest.`,
	SilenceUsage: true,
	RunE:         runBatch,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&inputDir, "input", "", "directory of screenshots (overrides INPUT_DIR)")
	rootCmd.PersistentFlags().StringVar(&outputPath, "output", "", "CSV report path (overrides OUTPUT_PATH)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "OCR backend: tesseract or command (overrides OCR_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&ocrCommand, "ocr-command", "", "helper executable for the command backend (overrides OCR_COMMAND)")
	rootCmd.PersistentFlags().StringVar(&levelMarker, "level-marker", "", "literal that precedes the level (overrides LEVEL_MARKER)")

	rootCmd.AddCommand(runCmd, watchCmd, workerCmd, enqueueCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the input directory once and write the report",
	RunE:  runBatch,
}

// loadConfig reads the environment and applies flag overrides
func loadConfig() (*config.Config, *logging.Logger, error) {
	if envFile != "" {
		// A missing file is fine; the process environment is used as is.
		_ = godotenv.Load(envFile)
	}

	cfg, err := config.LoadConfig(applyFlags)
	if err != nil {
		return nil, nil, err
	}

	logging.SetLevel(cfg.LogLevel)
	return cfg, logging.NewLogger("resultocr"), nil
}

// applyFlags lets non-empty flags win over the environment
func applyFlags(cfg *config.Config) {
	if inputDir != "" {
		cfg.InputDir = inputDir
	}
	if outputPath != "" {
		cfg.OutputPath = outputPath
	}
	if backend != "" {
		cfg.OCRBackend = backend
	}
	if ocrCommand != "" {
		cfg.OCRCommand = ocrCommand
	}
	if levelMarker != "" {
		cfg.LevelMarker = levelMarker
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	app, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.orchestrator.Run(cmd.Context(), cfg.InputDir, cfg.OutputPath)
	if err != nil {
		logger.Error("Batch failed", "error", err)
		return err
	}

	logger.Info("Batch complete", "rows", len(result.Rows), "failed", len(result.Failures), "output_path", result.OutputPath, "duration", result.Duration)
	for _, f := range result.Failures {
		logger.Warn("Skipped image", "path", f.Path, "code", f.Code)
	}
	return nil
}
