package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/worldcheck-sorter/internal/classify"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/common"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/extract"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/pdftext"
)

func main() {
	cfg := common.LoadConfig()
	backend := flag.String("backend", cfg.PDF.Backend, "pdf text backend: auto, native or pdftotext")
	dump := flag.Bool("text", false, "print the full extracted text")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "pdftext [-backend auto|native|pdftotext] [-text] <report.pdf>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	x := pdftext.NewExtractor(pdftext.Config{Backend: *backend, Pdftotext: cfg.PDF.Pdftotext}, logger)

	if err := pdftext.Validate(path); err != nil {
		logger.Warn("structural validation failed", "path", path, "error", err)
	}

	start := time.Now()
	first, err := x.FirstPageText(ctx, path)
	if err != nil {
		logger.Error("first page extraction failed", "path", path, "error", err)
		os.Exit(1)
	}
	pages, err := x.PageTexts(ctx, path)
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", err)
		os.Exit(1)
	}
	text := extract.JoinPages(pages)
	fields := extract.Extract(text)

	logger.Info("text extraction OK",
		"path", path,
		"pages", len(pages),
		"bytes", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	fmt.Printf("screened in: %v\n", classify.Screen(first))
	fmt.Printf("category:    %s\n", classify.Classify(text))
	fmt.Printf("entity type: %s\n", fields.EntityType)
	fmt.Printf("name:        %s\n", fields.Name())
	if *dump {
		fmt.Println("----")
		fmt.Println(text)
	}
}
