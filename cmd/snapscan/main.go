// snapscan runs one receipt scan from the command line: image file in, draft
// receipt out, optionally with a settlement preview.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/snapsplit/snapsplit/constants"
	"github.com/snapsplit/snapsplit/internal/common"
	"github.com/snapsplit/snapsplit/internal/money"
	"github.com/snapsplit/snapsplit/internal/receipt"
	"github.com/snapsplit/snapsplit/internal/scan"
	"github.com/snapsplit/snapsplit/internal/split"
	"github.com/snapsplit/snapsplit/internal/vision"
	"github.com/snapsplit/snapsplit/internal/vision/openai"
	"github.com/snapsplit/snapsplit/pkg/logging"
)

func main() {
	people := flag.String("people", "", "comma-separated names for an even-split settlement preview")
	hint := flag.String("hint", "", "context hint passed to the extraction service")
	asJSON := flag.Bool("json", false, "print the raw receipt JSON instead of a summary")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: snapscan [flags] <image-file>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}
	logging.SetupWithLevel(slog.LevelWarn)
	log := slog.Default()

	path := flag.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
		os.Exit(1)
	}
	mt := constants.NormalizeMIME(mime.TypeByExtension(filepath.Ext(path)))
	if _, ok := constants.AllowedImageMIMETypes[mt]; !ok {
		fmt.Fprintf(os.Stderr, "unsupported image type %q for %s\n", mt, path)
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	client := openai.NewClient(openai.Config{
		APIKey:      cfg.Vision.APIKey,
		BaseURL:     cfg.Vision.BaseURL,
		Model:       cfg.Vision.Model,
		Temperature: cfg.Vision.Temperature,
		Timeout:     cfg.Vision.Timeout,
	}, log)
	if !client.Configured() {
		fmt.Fprintln(os.Stderr, "OPENAI_API_KEY is required to scan an image")
		os.Exit(1)
	}

	scanner := scan.New(client, scan.Options{
		MaxAttempts: cfg.Scan.MaxAttempts,
		BaseDelay:   cfg.Scan.BaseDelay,
	}, log)

	rec, err := scanner.Scan(context.Background(), scan.Request{
		ExtractRequest: vision.ExtractRequest{
			ImageBase64: base64.StdEncoding.EncodeToString(data),
			MIMEType:    mt,
			Hint:        *hint,
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, scan.UserMessage(err))
		os.Exit(1)
	}

	if *asJSON {
		out, _ := json.MarshalIndent(rec, "", "  ")
		fmt.Println(string(out))
		return
	}

	fmt.Printf("%s", rec.Merchant)
	if rec.Date != "" {
		fmt.Printf("  %s", rec.Date)
	}
	if rec.Time != "" {
		fmt.Printf(" %s", rec.Time)
	}
	fmt.Printf("  [%s, confidence %.2f]\n", rec.Method, rec.Confidence)
	for _, it := range rec.LineItems {
		fmt.Printf("  %-32s %s\n", it.Name, money.Format(it.Price, ""))
	}
	fmt.Printf("Total: %s\n", money.Format(rec.Total, ""))
	for _, w := range rec.Warnings {
		fmt.Printf("warning: %s\n", w)
	}

	if *people != "" {
		printSettlementPreview(rec, strings.Split(*people, ","))
	}
}

// printSettlementPreview assigns every item to everyone and settles with the
// first person as payer, which is what a quick terminal preview wants.
func printSettlementPreview(rec *receipt.Receipt, names []string) {
	persons := make([]split.Person, 0, len(names))
	ids := make([]string, 0, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id := fmt.Sprintf("p%d", i+1)
		persons = append(persons, split.Person{ID: id, Name: name})
		ids = append(ids, id)
	}
	if len(persons) == 0 {
		return
	}

	items := make([]receipt.LineItem, len(rec.LineItems))
	copy(items, rec.LineItems)
	for i := range items {
		items[i].AllocatedTo = ids
	}

	entries := split.Settle(items, persons, rec.Surcharge, persons[0].ID)
	fmt.Println()
	fmt.Print(split.FormatShareText(persons[0], entries, split.ShareOptions{
		Group:    "Preview",
		Merchant: rec.Merchant,
		Date:     rec.Date,
		Time:     rec.Time,
		Total:    rec.Total,
	}))
}
