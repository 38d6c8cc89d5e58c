package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ternarybob/livewire/internal/app"
	"github.com/ternarybob/livewire/internal/common"
	"github.com/ternarybob/livewire/internal/models"
)

func runIngest(ctx context.Context, application *app.App, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: livewire ingest <file>")
		os.Exit(1)
	}

	result, err := application.IngestService.IngestFile(ctx, args[0])
	if err != nil {
		logger.Fatal().Err(err).Str("file", args[0]).Msg("Ingest failed")
		os.Exit(1)
	}

	// New generation is live once ingest returns; refresh the query snapshot.
	if err := application.RetrievalService.Reload(); err != nil {
		logger.Warn().Err(err).Msg("Corpus reload after ingest failed")
	}

	fmt.Printf("Ingested %s\n", result.SourceFile)
	fmt.Printf("  generation: %s\n", result.Generation)
	fmt.Printf("  chunks:     %d\n", result.ChunkCount)
	fmt.Printf("  duration:   %s\n", result.Duration.Round(time.Millisecond))
}

func runQuery(ctx context.Context, application *app.App, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: livewire query <text>")
		os.Exit(1)
	}
	query := strings.Join(args, " ")

	results := application.RetrievalService.Retrieve(ctx, query, 0)
	generated := application.CardService.GenerateCards(query, results)

	fmt.Printf("Query: %q (%d corpus chunks, %d matches)\n\n",
		query, application.RetrievalService.ChunkCount(), len(results))

	for i, card := range generated {
		fmt.Printf("[%d] %s (%s)\n", i+1, card.Title, card.Type)
		fmt.Printf("    %s\n", card.Body)
		if card.Grounded {
			fmt.Printf("    confidence=%.2f sources=%v\n", card.ConfidenceScore, card.SourceChunkIDs)
		}
		fmt.Println()
	}
}

func runPush(ctx context.Context, application *app.App, args []string) {
	fs := flag.NewFlagSet("push", flag.ExitOnError)
	sessionID := fs.String("session", "", "Session identifier (generated when empty)")
	contactID := fs.String("contact", "", "CRM contact identifier (required)")
	artifact := fs.String("artifact", "call_summary", "Artifact type: call_summary, tasks or tags")
	summary := fs.String("summary", "", "Call summary text")
	tasks := fs.String("tasks", "", "Comma-separated follow-up tasks")
	tags := fs.String("tags", "", "Comma-separated session tags")
	fs.Parse(args)

	if *sessionID == "" {
		*sessionID = common.NewSessionID()
	}

	req := &models.PushRequest{
		SessionID:    *sessionID,
		ArtifactType: models.ArtifactType(*artifact),
		Summary:      *summary,
		Tasks:        splitList(*tasks),
		Tags:         splitList(*tags),
		ContactID:    *contactID,
	}

	result := application.DeliveryService.PushSessionArtifacts(ctx, req)

	fmt.Printf("Push status: %s (attempts: %d)\n", result.Status, result.Attempts)
	if result.Mock {
		fmt.Println("  mode: mock (no CRM API key configured)")
	}
	if len(result.ArtifactIDs) > 0 {
		fmt.Printf("  artifacts: %s\n", strings.Join(result.ArtifactIDs, ", "))
	}
	if result.UserMessage != "" {
		fmt.Printf("  %s\n", result.UserMessage)
	}
	if result.Status == models.PushError && !result.Retryable {
		fmt.Printf("  error: %s\n", result.LastError)
		os.Exit(1)
	}
}

func runStatus(application *app.App, args []string) {
	status := application.DeliveryService.GetRateLimitStatus()

	fmt.Printf("CRM status:       %s\n", status.Status)
	fmt.Printf("  recent hits:    %d (last 5 min)\n", status.RecentHits)
	fmt.Printf("  backoff:        %.1fs\n", status.CurrentBackoff)
	fmt.Printf("  corpus chunks:  %d\n", application.RetrievalService.ChunkCount())
	fmt.Printf("  %s\n", status.Message)
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
