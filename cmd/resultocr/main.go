/**
 * Result-screen OCR worker - Main Entry Point
 *
 * Extracts title, level and capture time from rhythm-game result screenshots
 * and writes one CSV row per image.
 *
 * Commands:
 * - run (default): scan INPUT_DIR once and write OUTPUT_PATH
 * - watch: run, then re-run whenever screenshots change
 * - worker: consume batch runs from the Redis queue
 * - enqueue: submit a batch run to the Redis queue
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
