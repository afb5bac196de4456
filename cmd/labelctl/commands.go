package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/labelops/engine/internal/application/ledger"
	"github.com/labelops/engine/internal/domain/label"
	"github.com/labelops/engine/internal/domain/shared"
	"github.com/labelops/engine/internal/infrastructure/logger"
	"github.com/spf13/cobra"
)

func issueCommand(a *app) *cobra.Command {
	var (
		category string
		product  string
		lot      string
		expiry   string
		version  string
		location string
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a new label and append it to the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := label.ParseCategory(category)
			if err != nil {
				return err
			}
			rec, err := a.ledger.Append(cmd.Context(), ledger.AppendInput{
				ProductCode: product,
				Lot:         lot,
				Expiry:      expiry,
				Version:     version,
				Location:    location,
				Category:    cat,
			})
			if err != nil {
				return err
			}
			fmt.Printf("issued serial %d (%s %s at %s, disposal %s)\n",
				rec.SerialNumber, rec.ProductCode, rec.Category, rec.Location,
				formatOptionalDate(rec.DisposalDate()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "label category ("+categoryNames()+")")
	cmd.Flags().StringVarP(&product, "product", "p", "", "product code")
	cmd.Flags().StringVar(&lot, "lot", "", "lot number")
	cmd.Flags().StringVar(&expiry, "expiry", "", "expiry date ("+ledger.DateLayout+")")
	cmd.Flags().StringVar(&version, "version", "", "document version")
	cmd.Flags().StringVarP(&location, "location", "l", "", "storage location (ZONE-RR-CC)")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("location")
	return cmd
}

func showCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <serial>",
		Short: "Show one ledger record by serial number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			serial, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return shared.ErrInvalidInput.WithMessage("serial number must be an integer")
			}
			rec, err := a.ledger.FindBySerial(cmd.Context(), serial)
			if err != nil {
				return err
			}
			printRecords(os.Stdout, []label.Record{*rec})
			return nil
		},
	}
}

func listCommand(a *app) *cobra.Command {
	var (
		filterFlags recordFilterFlags
		sortBy      string
		ascending   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger records",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filterFlags.build()
			if err != nil {
				return err
			}
			records, err := a.ledger.Query(cmd.Context(), filter, label.SortKey(sortBy), ascending)
			if err != nil {
				return err
			}
			printRecords(os.Stdout, records)
			return nil
		},
	}

	filterFlags.register(cmd)
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort field (issued_at, serial_number, expiry_date, product_code, location)")
	cmd.Flags().BoolVar(&ascending, "asc", false, "sort ascending instead of descending")
	return cmd
}

func deleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <serial>...",
		Short: "Permanently remove ledger records (manual correction)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			serials := make([]int64, 0, len(args))
			for _, arg := range args {
				serial, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return shared.ErrInvalidInput.WithMessage(fmt.Sprintf("serial number %q must be an integer", arg))
				}
				serials = append(serials, serial)
			}
			deleted, err := a.ledger.Delete(cmd.Context(), serials...)
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d of %d\n", deleted, len(serials))
			return nil
		},
	}
}

func serialCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serial",
		Short: "Inspect or advance the serial allocator",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "peek",
		Short: "Show the serial the next issuance would receive",
		RunE: func(cmd *cobra.Command, args []string) error {
			next, ok, err := a.serial.Peek(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("1 (nothing allocated yet)")
				return nil
			}
			fmt.Println(next)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "next",
		Short: "Allocate and consume the next serial",
		RunE: func(cmd *cobra.Command, args []string) error {
			serial, err := a.serial.Next(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(serial)
			return nil
		},
	})
	return cmd
}

func stockCommand(a *app) *cobra.Command {
	var (
		filterFlags recordFilterFlags
		groupBy     []string
	)

	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Aggregate ledger records into stock counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filterFlags.build()
			if err != nil {
				return err
			}
			keys := make([]ledger.GroupKey, 0, len(groupBy))
			for _, g := range groupBy {
				keys = append(keys, ledger.GroupKey(g))
			}
			counts, err := a.stock.CountsBy(cmd.Context(), keys, filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LOCATION\tCATEGORY\tPRODUCT\tCOUNT")
			for _, key := range ledger.SortedCountKeys(counts) {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
					orDash(key.Location), orDash(key.Category.String()), orDash(key.ProductCode), counts[key])
			}
			return w.Flush()
		},
	}

	filterFlags.register(cmd)
	cmd.Flags().StringSliceVar(&groupBy, "by", []string{"location", "product_code"},
		"group dimensions (location, category, product_code)")

	cmd.AddCommand(stockAvailableCommand(a))
	return cmd
}

func stockAvailableCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "available <location> <product-code>",
		Short: "Count records available at a location for a product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.stock.AvailableQuantity(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}
}

func outboundCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbound",
		Short: "Outbound deduction and its audit trail",
	}
	cmd.AddCommand(
		outboundDeductCommand(a),
		outboundBatchCommand(a),
		outboundHistoryCommand(a),
	)
	return cmd
}

func outboundDeductCommand(a *app) *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "deduct <location> <product-code> <quantity>",
		Short: "Remove stock in FIFO order, recording the removal",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[2])
			if err != nil {
				return shared.ErrInvalidInput.WithMessage("quantity must be an integer")
			}
			ctx, _ := logger.WithActor(cmd.Context(), a.logger, actor)
			removed, err := a.stock.DeductOutbound(ctx, args[0], args[1], quantity, actor)
			if err != nil {
				return err
			}
			for i := range removed {
				fmt.Printf("removed serial %d (%s, lot %s)\n",
					removed[i].SourceSerialNumber, removed[i].ProductCode, removed[i].Lot)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "operator performing the removal")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func outboundBatchCommand(a *app) *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Process a CSV of deductions: location,product_code,quantity",
		Long: "Every row is validated for category eligibility and stock " +
			"sufficiency before any deduction commits. Rows that pass are then " +
			"committed one by one; each row's outcome is reported separately.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requests, err := readDeductRequests(args[0], actor)
			if err != nil {
				return err
			}
			ctx, _ := logger.WithActor(cmd.Context(), a.logger, actor)
			results := a.stock.BatchDeduct(ctx, requests)

			failed := 0
			for i, res := range results {
				if res.Err != nil {
					failed++
					fmt.Printf("row %d: %s %s x%d: FAILED: %v\n",
						i+1, res.Request.Location, res.Request.ProductCode, res.Request.Quantity, res.Err)
					continue
				}
				fmt.Printf("row %d: %s %s x%d: removed %d\n",
					i+1, res.Request.Location, res.Request.ProductCode, res.Request.Quantity, len(res.Removed))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d rows failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "operator performing the removals")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func outboundHistoryCommand(a *app) *cobra.Command {
	var (
		location string
		product  string
		actor    string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the outbound audit trail, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.stock.OutboundHistory(cmd.Context(), label.OutboundFilter{
				Location:    location,
				ProductCode: product,
				Actor:       actor,
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "REMOVED\tSERIAL\tPRODUCT\tLOT\tLOCATION\tACTOR")
			for i := range records {
				r := &records[i]
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
					r.RemovedAt.Format("2006-01-02 15:04:05"),
					r.SourceSerialNumber, r.ProductCode, r.Lot, r.Location, r.Actor)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&location, "location", "l", "", "filter by location")
	cmd.Flags().StringVarP(&product, "product", "p", "", "filter by product code")
	cmd.Flags().StringVar(&actor, "actor", "", "filter by operator")
	return cmd
}

func gridCommand(a *app) *cobra.Command {
	var (
		filterFlags recordFilterFlags
		showEmpty   bool
	)

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Project the ledger onto the configured location grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filterFlags.build()
			if err != nil {
				return err
			}
			grid, err := a.grid.Snapshot(cmd.Context(), &filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LOCATION\tRECORDS\tPRODUCTS\tNEAREST DISPOSAL")
			for _, cell := range grid.Cells {
				if cell.Empty && !showEmpty {
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
					cell.Location, cell.TotalRecords, cell.DistinctProducts,
					formatOptionalDate(cell.NearestDisposal))
			}
			return w.Flush()
		},
	}

	filterFlags.register(cmd)
	cmd.Flags().BoolVar(&showEmpty, "all", false, "include empty cells")
	return cmd
}

func exportCommand(a *app) *cobra.Command {
	var (
		filterFlags recordFilterFlags
		out         string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export matching ledger records as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filterFlags.build()
			if err != nil {
				return err
			}

			var w io.Writer = os.Stdout
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return a.ledger.ExportCSV(cmd.Context(), w, filter)
		},
	}

	filterFlags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

// recordFilterFlags is the shared --category/--product/--location/--from/--to
// flag set used by every command that filters ledger records.
type recordFilterFlags struct {
	category string
	product  string
	location string
	from     string
	to       string
}

func (f *recordFilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "filter by category ("+categoryNames()+")")
	cmd.Flags().StringVarP(&f.product, "product", "p", "", "filter by product code")
	cmd.Flags().StringVarP(&f.location, "location", "l", "", "filter by location")
	cmd.Flags().StringVar(&f.from, "from", "", "issued on or after ("+ledger.DateLayout+")")
	cmd.Flags().StringVar(&f.to, "to", "", "issued before ("+ledger.DateLayout+")")
}

func (f *recordFilterFlags) build() (label.Filter, error) {
	filter := label.Filter{
		ProductCode: f.product,
		Location:    f.location,
	}
	if f.category != "" {
		cat, err := label.ParseCategory(f.category)
		if err != nil {
			return label.Filter{}, err
		}
		filter.Category = &cat
	}
	if f.from != "" {
		t, err := time.Parse(ledger.DateLayout, f.from)
		if err != nil {
			return label.Filter{}, shared.ErrInvalidInput.WithMessage("--from must be " + ledger.DateLayout)
		}
		filter.IssuedFrom = &t
	}
	if f.to != "" {
		t, err := time.Parse(ledger.DateLayout, f.to)
		if err != nil {
			return label.Filter{}, shared.ErrInvalidInput.WithMessage("--to must be " + ledger.DateLayout)
		}
		filter.IssuedTo = &t
	}
	return filter, nil
}

func readDeductRequests(path, actor string) ([]ledger.DeductRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	var requests []ledger.DeductRequest
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, shared.ErrInvalidInput.WithMessage("malformed batch file: " + err.Error())
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "location") {
			continue
		}
		quantity, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil {
			return nil, shared.ErrInvalidInput.WithMessage(
				fmt.Sprintf("batch row %d: quantity %q must be an integer", line, row[2]))
		}
		requests = append(requests, ledger.DeductRequest{
			Location:    strings.TrimSpace(row[0]),
			ProductCode: strings.TrimSpace(row[1]),
			Quantity:    quantity,
			Actor:       actor,
		})
	}
	return requests, nil
}

func printRecords(w io.Writer, records []label.Record) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERIAL\tCATEGORY\tPRODUCT\tNAME\tLOT\tEXPIRY\tDISPOSAL\tLOCATION\tVERSION\tISSUED")
	for i := range records {
		r := &records[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.SerialNumber, r.Category, r.ProductCode, r.ProductName, r.Lot,
			formatOptionalDate(r.ExpiryDate), formatOptionalDate(r.DisposalDate()),
			r.Location, r.Version, r.IssuedAt.Format("2006-01-02 15:04:05"))
	}
	tw.Flush()
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return label.NoValue
	}
	return t.Format(ledger.DateLayout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func categoryNames() string {
	all := label.AllCategories()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}
