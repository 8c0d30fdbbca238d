package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bimsrama/relasi4warna/internal/models"
	red "github.com/bimsrama/relasi4warna/internal/redis"
)

func main() {
	data := flag.String("d", "", "Inline JSON GenerationRequest")
	stream := flag.String("stream", "report-events", "Stream name")
	flag.Parse()

	if *data == "" {
		fmt.Fprintln(os.Stderr, "Usage: producer -d '<json>'")
		flag.PrintDefaults()
		os.Exit(1)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := run(*data, *stream); err != nil {
		log.Error().Err(err).Msg("producer failed")
		os.Exit(1)
	}
}

func run(data, stream string) error {
	_ = godotenv.Load()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	ctx := context.Background()
	client, err := red.ConnectRedis(ctx, addr, os.Getenv("REDIS_PASSWORD"), 3)
	if err != nil {
		return err
	}
	defer client.Close()

	var req models.GenerationRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		return err
	}
	if req.SubjectID == "" || req.PromptText == "" {
		return fmt.Errorf("subject_id and prompt_text are required")
	}
	switch req.Language {
	case "":
		req.Language = models.LanguageIndonesian
	case models.LanguageIndonesian, models.LanguageEnglish:
	default:
		return fmt.Errorf("unsupported language %q (want id or en)", req.Language)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	id, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"payload": string(payload)},
	}).Result()
	if err != nil {
		return err
	}

	log.Info().Str("stream", stream).Str("id", id).Str("subject_id", req.SubjectID).Msg("Published successfully!")
	return nil
}
