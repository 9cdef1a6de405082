// Command ratectl maintains rate tables: it exports, audits, seeds, uploads
// and activates versions, and can price a single request from the shell.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"msme-roi-engine/internal/config"
	"msme-roi-engine/internal/eligibility"
	"msme-roi-engine/internal/handlers"
	"msme-roi-engine/internal/ratetable"
	"msme-roi-engine/internal/resolver"
	"msme-roi-engine/internal/services/database"
	"msme-roi-engine/internal/services/quote"
	"msme-roi-engine/internal/services/ratesource"
	s3service "msme-roi-engine/internal/services/s3"
	"msme-roi-engine/internal/utils"
)

const usage = `usage: ratectl <command> [flags]

commands:
  export     write a rate table as CSV
  audit      report rate table keys a legal request could miss
  seed       store a rate table as a new Postgres version
  upload     upload a rate table CSV to the S3 incoming prefix
  pending    list uploads not yet ingested
  versions   list stored versions
  activate   make a stored version the active one
  quote      price a JSON request read from stdin
`

type command func(ctx context.Context, cfg *config.Config, args []string) error

var commands = map[string]command{
	"export":   runExport,
	"audit":    runAudit,
	"seed":     runSeed,
	"upload":   runUpload,
	"pending":  runPending,
	"versions": runVersions,
	"activate": runActivate,
	"quote":    runQuote,
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	// Commands print their own output; keep the log on warnings.
	_ = utils.InitLogger("warn", "")
	defer utils.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := cmd(ctx, cfg, os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "ratectl %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

// loadEntries reads a CSV file, or the builtin table when path is empty.
func loadEntries(path string) (string, []ratetable.Entry, error) {
	if path == "" {
		return ratetable.BuiltinVersion, ratetable.BuiltinEntries(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	entries, errs := utils.NewCSVParser().ParseEntries(string(data))
	if len(errs) > 0 {
		return "", nil, errors.Join(errs...)
	}
	return s3service.VersionFromKey(path), entries, nil
}

func runExport(_ context.Context, _ *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	in := fs.String("file", "", "CSV to normalise (default: builtin table)")
	out := fs.String("out", "", "output path (default: stdout)")
	_ = fs.Parse(args)

	_, entries, err := loadEntries(*in)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return utils.WriteEntries(w, entries)
}

func runAudit(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	in := fs.String("file", "", "CSV to audit (default: configured RATE_TABLE_SOURCE)")
	_ = fs.Parse(args)

	var (
		store *ratetable.Store
		err   error
	)
	if *in != "" {
		var data []byte
		if data, err = os.ReadFile(*in); err != nil {
			return err
		}
		store, err = ratesource.FromCSV(s3service.VersionFromKey(*in), data)
	} else {
		store, err = ratesource.Load(ctx, cfg)
	}
	if err != nil {
		return err
	}

	gaps := resolver.AuditCoverage(store, eligibility.Rules())
	for _, gap := range gaps {
		fmt.Println(gap)
	}
	if len(gaps) > 0 {
		return fmt.Errorf("%d gaps in %s", len(gaps), store.Version())
	}
	fmt.Printf("%s: %d entries, no gaps\n", store.Version(), len(store.Entries()))
	return nil
}

func openRepository(cfg *config.Config) (*database.RateTableRepository, func(), error) {
	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return database.NewRateTableRepository(db), db.Close, nil
}

func runSeed(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	in := fs.String("file", "", "CSV to store (default: builtin table)")
	version := fs.String("version", "", "version name (default: file name or builtin version)")
	activate := fs.Bool("activate", true, "make the new version active")
	_ = fs.Parse(args)

	name, entries, err := loadEntries(*in)
	if err != nil {
		return err
	}
	if *version != "" {
		name = *version
	}
	if _, err := ratetable.Build(name, entries); err != nil {
		return err
	}

	repo, closeDB, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	source := "ratectl"
	if *in != "" {
		source = "file://" + *in
	}
	if err := repo.SaveVersion(ctx, name, source, entries, *activate); err != nil {
		return err
	}
	fmt.Printf("stored %s (%d entries, active=%t)\n", name, len(entries), *activate)
	return nil
}

func runUpload(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	in := fs.String("file", "", "CSV to upload (required)")
	version := fs.String("version", "", "version name (default: file name)")
	_ = fs.Parse(args)

	if *in == "" {
		return errors.New("-file is required")
	}

	raw, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	check, err := utils.ValidateCSVStructure(string(raw))
	if err != nil {
		return err
	}
	if !check.Valid {
		return fmt.Errorf("%s: %d rows, missing columns %v, %v", *in, check.RowCount, check.MissingColumns, check.Errors)
	}

	name, entries, err := loadEntries(*in)
	if err != nil {
		return err
	}
	if *version != "" {
		name = *version
	}

	// Upload the normalised form so the ingest handler sees canonical keys.
	var buf bytes.Buffer
	if err := utils.WriteEntries(&buf, entries); err != nil {
		return err
	}

	svc, err := s3service.NewService(ctx, cfg)
	if err != nil {
		return err
	}
	key := s3service.IncomingPrefix + name + ".csv"
	if err := svc.UploadFile(ctx, key, buf.Bytes(), s3service.CSVContentType); err != nil {
		return err
	}
	fmt.Printf("uploaded s3://%s/%s\n", svc.Bucket(), key)
	return nil
}

func runPending(ctx context.Context, cfg *config.Config, _ []string) error {
	svc, err := s3service.NewService(ctx, cfg)
	if err != nil {
		return err
	}

	objects, err := svc.ListFiles(ctx, s3service.IncomingPrefix, 100)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tSIZE\tMODIFIED")
	for _, o := range objects {
		var modified string
		if o.LastModified != nil {
			modified = o.LastModified.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", aws.ToString(o.Key), aws.ToInt64(o.Size), modified)
	}
	return w.Flush()
}

func runVersions(ctx context.Context, cfg *config.Config, _ []string) error {
	repo, closeDB, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	versions, err := repo.ListVersions(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tACTIVE\tENTRIES\tCREATED\tSOURCE")
	for _, v := range versions {
		active := ""
		if v.IsActive {
			active = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", v.Version, active, v.EntryCount, v.CreatedAt.Format(time.RFC3339), v.Source)
	}
	return w.Flush()
}

func runActivate(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("activate", flag.ExitOnError)
	version := fs.String("version", "", "version to activate (required)")
	_ = fs.Parse(args)

	if *version == "" {
		return errors.New("-version is required")
	}

	repo, closeDB, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := repo.Activate(ctx, *version); err != nil {
		return err
	}
	fmt.Printf("activated %s\n", *version)
	return nil
}

func runQuote(ctx context.Context, cfg *config.Config, _ []string) error {
	var req quote.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}

	svc, err := quote.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	res, err := svc.Quote(ctx, req)
	if err != nil {
		_, body := handlers.StatusFor(err)
		_ = enc.Encode(body)
		return err
	}
	return enc.Encode(res)
}
