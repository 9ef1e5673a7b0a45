package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/raine/wardrobe-editorial/config"
	"github.com/raine/wardrobe-editorial/internal/client"
	"github.com/raine/wardrobe-editorial/internal/editorial"
	"github.com/raine/wardrobe-editorial/internal/llm"
	"github.com/raine/wardrobe-editorial/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `Usage:
  editorial generate [-variant editorial|capsule|brand_kit] [-image path|url]... [-brand name]... [-items text] [-category c] [-tone t] [-note n] [-no-save]
  editorial history
  editorial show <id>
`

type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.DefaultContextLogger = &log.Logger
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch os.Args[1] {
	case "generate":
		err = runGenerate(ctx, cfg, os.Args[2:])
	case "history":
		err = runHistory(ctx, cfg)
	case "show":
		if len(os.Args) < 3 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		err = runShow(ctx, cfg, os.Args[2])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type generateOpts struct {
	variant  string
	images   stringList
	brands   stringList
	items    string
	category string
	tone     string
	note     string
	noSave   bool
}

func runGenerate(ctx context.Context, cfg config.Config, args []string) error {
	var opts generateOpts
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.StringVar(&opts.variant, "variant", "", "Result variant: editorial, capsule or brand_kit")
	fs.Var(&opts.images, "image", "Reference image file or http(s) url (repeat 3 times)")
	fs.Var(&opts.brands, "brand", "Reference brand (repeat 2 or 3 times)")
	fs.StringVar(&opts.items, "items", "", "Wardrobe items, separated by commas")
	fs.StringVar(&opts.category, "category", "", "Occasion or category")
	fs.StringVar(&opts.tone, "tone", "", "Editorial tone")
	fs.StringVar(&opts.note, "note", "", "Free note for the editor")
	fs.BoolVar(&opts.noSave, "no-save", false, "Do not save the result to history")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := buildRequest(opts)
	if err != nil {
		return err
	}

	c := client.NewClient(client.ClientOpts{
		BaseURL: cfg.ServerURL,
		APIKey:  cfg.ClientAPIKey,
	})
	outcome := c.Generate(ctx, req)
	if failure := outcome.Failure(); failure != nil {
		fmt.Fprintln(os.Stderr, editorial.UserMessage(failure))
		return fmt.Errorf("%s (debug id: %s)", failure.Kind, failure.DebugID)
	}

	payload, _ := outcome.Payload()
	if err := printJSON(payload); err != nil {
		return err
	}

	if opts.noSave || cfg.HistoryPassphrase == "" {
		return nil
	}
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.SaveHistory(ctx, &storage.HistoryEntry{
		Variant: req.Variant,
		Label:   historyLabel(req),
		Payload: payload,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Saved as %s\n", id)
	return nil
}

func runHistory(ctx context.Context, cfg config.Config) error {
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.ListHistory(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No saved results")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVARIANT\tCREATED\tLABEL")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.Variant, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Label)
	}
	return w.Flush()
}

func runShow(ctx context.Context, cfg config.Config, id string) error {
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.GetHistory(ctx, id)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("no saved result with id %s", id)
	}
	return printJSON(entry.Payload)
}

func openHistory(cfg config.Config) (*storage.SQLiteStore, error) {
	if cfg.HistoryPassphrase == "" {
		return nil, fmt.Errorf("HISTORY_PASSPHRASE is not set")
	}
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	return storage.NewSQLiteStore(path, cfg.HistoryPassphrase, cfg.HistoryLimit)
}

// buildRequest turns flags into a request. Local files become data URIs;
// urls are passed as is. Mixing both is rejected.
func buildRequest(opts generateOpts) (editorial.Request, error) {
	variant, err := editorial.ParseVariant(opts.variant)
	if err != nil {
		return editorial.Request{}, err
	}
	req := editorial.Request{
		Variant:   variant,
		BrandRefs: opts.brands,
		Items:     opts.items,
		Category:  opts.category,
		Tone:      opts.tone,
		Note:      opts.note,
	}

	urls := 0
	for _, img := range opts.images {
		if isURL(img) {
			urls++
		}
	}
	switch {
	case urls == len(opts.images):
		req.Images = opts.images
		req.IsURLs = urls > 0
	case urls > 0:
		return editorial.Request{}, fmt.Errorf("images must be all files or all urls")
	default:
		for _, path := range opts.images {
			uri, err := loadImage(path)
			if err != nil {
				return editorial.Request{}, err
			}
			req.Images = append(req.Images, uri)
		}
	}
	return req, nil
}

func loadImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	hint := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if i := strings.IndexByte(hint, ';'); i >= 0 {
		hint = hint[:i]
	}
	mt := llm.PickMIME("", hint, data)
	if !strings.HasPrefix(mt, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", path, mt)
	}
	return llm.MakeDataURL(mt, data), nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func historyLabel(req editorial.Request) string {
	var label string
	switch {
	case len(req.BrandRefs) > 0:
		label = strings.Join(req.BrandRefs, ", ")
	case req.Items != "":
		label = req.Items
	case len(req.Images) > 0:
		label = fmt.Sprintf("%d imagens", len(req.Images))
	}
	if utf8.RuneCountInString(label) > 60 {
		label = string([]rune(label)[:57]) + "..."
	}
	return label
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
