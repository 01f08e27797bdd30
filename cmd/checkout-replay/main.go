package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/checkout-floor/internal/domain/checkout"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

type opKind int

const (
	opAdd opKind = iota
	opCheckout
)

// op is one replayed floor operation.
type op struct {
	kind       opKind
	customerID string
	itemID     string
}

// fileResult holds the operations parsed from one log file.
type fileResult struct {
	ops       []op
	customers *bloom.BloomFilter
}

// summary describes a finished replay.
type summary struct {
	assigned          int
	checkedOut        int
	rejected          int
	distinctCustomers uint32
}

func main() {
	var (
		registers   int
		concurrency int
	)

	flag.IntVar(&registers, "registers", checkout.DefaultRegisters, "number of registers on the replayed floor")
	flag.IntVar(&concurrency, "concurrency", 4, "number of log files decoded in parallel")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		slog.Error("at least one .gz traffic log is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, os.Stdout, files, registers, concurrency); err != nil {
		slog.Error("replay failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("replay completed successfully")
}

func run(ctx context.Context, out io.Writer, files []string, registers, concurrency int) error {
	store, err := checkout.NewStore(registers)
	if err != nil {
		return errors.Wrap(err, "create store")
	}

	slog.Info("decoding traffic logs", slog.Int("files", len(files)))
	results, err := parseFiles(ctx, files, concurrency)
	if err != nil {
		return errors.Wrap(err, "parse traffic logs")
	}

	s, err := replay(store, results)
	if err != nil {
		return errors.Wrap(err, "replay")
	}
	if err := store.Verify(); err != nil {
		return errors.Wrap(err, "verify store")
	}

	slog.Info("replay summary",
		slog.Int("assigned", s.assigned),
		slog.Int("checked_out", s.checkedOut),
		slog.Int("rejected_checkouts", s.rejected),
		slog.Int("pending_items", store.PendingItems()),
		slog.Uint64("approx_distinct_customers", uint64(s.distinctCustomers)),
	)

	return writeState(out, store.State())
}

// parseFiles decodes every file concurrently, keeping results in file order.
func parseFiles(ctx context.Context, files []string, concurrency int) ([]fileResult, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			r, err := parseFile(ctx, path)
			if err != nil {
				return errors.Wrapf(err, "file %s", path)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func parseFile(ctx context.Context, path string) (fileResult, error) {
	r := fileResult{customers: bloom.NewWithEstimates(bloomCapacity, bloomFPR)}
	var lineNo int

	err := streamGzFile(ctx, path, func(line string) error {
		lineNo++
		o, ok, err := parseLine(line)
		if err != nil {
			return errors.Wrapf(err, "line %d", lineNo)
		}
		if !ok {
			return nil
		}
		r.customers.AddString(o.customerID)
		r.ops = append(r.ops, o)
		if len(r.ops)%progressEvery == 0 {
			slog.Info("decode progress", slog.String("file", path), slog.Int("ops", len(r.ops)))
		}
		return nil
	})
	if err != nil {
		return fileResult{}, err
	}

	slog.Info("decode complete", slog.String("file", path), slog.Int("ops", len(r.ops)))
	return r, nil
}

// parseLine reads "add <customer> <item>" or "checkout <customer>". Blank
// lines and lines starting with '#' are skipped.
func parseLine(line string) (op, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return op{}, false, nil
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "add":
		if len(fields) != 3 {
			return op{}, false, errors.Errorf("add expects customer and item, got %q", line)
		}
		return op{kind: opAdd, customerID: fields[1], itemID: fields[2]}, true, nil
	case "checkout":
		if len(fields) != 2 {
			return op{}, false, errors.Errorf("checkout expects customer, got %q", line)
		}
		return op{kind: opCheckout, customerID: fields[1]}, true, nil
	default:
		return op{}, false, errors.Errorf("unknown operation %q", fields[0])
	}
}

// replay applies the operations file by file, line by line. Checkouts for
// customers without a cart are counted and skipped.
func replay(store *checkout.Store, results []fileResult) (summary, error) {
	var (
		s         summary
		customers *bloom.BloomFilter
	)
	for _, r := range results {
		if customers == nil {
			customers = r.customers.Copy()
		} else if err := customers.Merge(r.customers); err != nil {
			return s, errors.Wrap(err, "merge customer filters")
		}

		for _, o := range r.ops {
			switch o.kind {
			case opAdd:
				if _, err := store.AssignItem(o.customerID, o.itemID); err != nil {
					return s, err
				}
				s.assigned++
			case opCheckout:
				err := store.CheckoutCustomer(o.customerID)
				switch {
				case errors.Is(err, checkout.ErrCartNotFound):
					s.rejected++
				case err != nil:
					return s, err
				default:
					s.checkedOut++
				}
			}
		}
	}
	if customers != nil {
		s.distinctCustomers = customers.ApproximatedSize()
	}
	return s, nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// writeState prints the final register state in the same shape the HTTP API
// returns.
func writeState(out io.Writer, state map[int][]string) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("registers")
	e.ObjStart()
	for id := 0; id < len(state); id++ {
		e.FieldStart(strconv.Itoa(id))
		e.ArrStart()
		for _, customerID := range state[id] {
			e.Str(customerID)
		}
		e.ArrEnd()
	}
	e.ObjEnd()
	e.ObjEnd()

	if _, err := out.Write(append(e.Bytes(), '\n')); err != nil {
		return errors.Wrap(err, "write state")
	}
	return nil
}
