package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrlokans/erratas/internal/entities"
	"github.com/mrlokans/erratas/internal/library"
	"github.com/mrlokans/erratas/internal/logging"
)

// openLibrary loads the highlights file at path. The caller must Close the
// returned library.
func (ctx *commandContext) openLibrary(path string) (library.Library, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read highlights file: %w", err)
	}

	registry, err := ctx.registry()
	if err != nil {
		return nil, err
	}

	return registry.Open(filepath.Base(path), raw, library.OpenOptions{
		TempDir: ctx.cfg.Upload.WorkspaceDir,
		Logger:  ctx.logger,
	})
}

func newFormatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported highlights file formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.registry()
			if err != nil {
				return err
			}
			rows := [][]string{}
			for _, d := range registry.Descriptors() {
				rows = append(rows, []string{d.Vendor, "." + d.Format})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Vendor", "Extension"}, rows, nil))
			for _, d := range registry.Descriptors() {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n%s\n", d.Vendor, d.UploadHelp)
			}
			return nil
		},
	}
}

func newBooksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "books <file>",
		Short: "List the books of a highlights file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := ctx.openLibrary(args[0])
			if err != nil {
				return err
			}
			defer lib.Close()

			books := lib.Books()
			if len(books) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No books with highlights found")
				return nil
			}

			rows := make([][]string, 0, len(books))
			for _, b := range books {
				rows = append(rows, []string{b.ID, b.Title, b.Author, strconv.Itoa(b.Len())})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Author", "Errata"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newErrataCommand(ctx *commandContext) *cobra.Command {
	var bookID, sortKey string

	cmd := &cobra.Command{
		Use:   "errata <file>",
		Short: "List the errata of one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := entities.ParseSortKey(sortKey)
			if err != nil {
				return err
			}

			lib, err := ctx.openLibrary(args[0])
			if err != nil {
				return err
			}
			defer lib.Close()

			book, err := lib.Book(bookID)
			if err != nil {
				return err
			}
			errata := book.Errata()
			if err := entities.SortErrata(errata, key); err != nil {
				return err
			}

			rows := make([][]string, 0, len(errata))
			for _, e := range errata {
				rows = append(rows, []string{
					e.ID,
					e.Date.Format("2006-01-02 15:04"),
					e.Section,
					e.Highlight,
					e.Correction,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), book.String())
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Date", "Section", "Highlight", "Correction"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&bookID, "book", "", "Book id (see the books command)")
	cmd.Flags().StringVar(&sortKey, "sort", string(entities.SortByDate), "Sort by date, position or section")
	_ = cmd.MarkFlagRequired("book")
	return cmd
}

func newReportCommand(ctx *commandContext) *cobra.Command {
	var (
		bookID string
		ids    []string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Write the errata report of one book",
		Long: "Write the errata report of one book, for every erratum or for the\n" +
			"ones given with --ids, to standard output or to --out.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := ctx.openLibrary(args[0])
			if err != nil {
				return err
			}
			defer lib.Close()

			book, err := lib.Book(bookID)
			if err != nil {
				return err
			}

			subset := make([]*entities.Erratum, 0, len(ids))
			for _, id := range ids {
				e, err := book.Erratum(id)
				if err != nil {
					e = &entities.Erratum{ID: id}
				}
				subset = append(subset, e)
			}

			if !book.HasCorrections(subset) {
				return errors.New("none of the selected errata has a correction")
			}

			report := book.Report(subset)
			for _, id := range report.Skipped {
				ctx.logger.Warn("erratum does not belong to book, skipped from report",
					logging.FieldBookID, book.ID,
					logging.FieldErratumID, id,
				)
			}

			return writeOutput(cmd.OutOrStdout(), out, []byte(report.Text))
		},
	}

	cmd.Flags().StringVar(&bookID, "book", "", "Book id (see the books command)")
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "Errata ids to report (default all)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the report to this file instead of standard output")
	_ = cmd.MarkFlagRequired("book")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	var (
		bookID string
		ids    []string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "delete <file>",
		Short: "Delete errata and write the updated highlights file",
		Long: "Delete errata from one book and write the updated highlights file\n" +
			"to --out. The input file is never modified.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			same, err := samePath(args[0], out)
			if err != nil {
				return err
			}
			if same {
				return errors.New("--out must differ from the input file")
			}

			lib, err := ctx.openLibrary(args[0])
			if err != nil {
				return err
			}
			defer lib.Close()

			book, err := lib.Book(bookID)
			if err != nil {
				return err
			}

			errata := make([]*entities.Erratum, 0, len(ids))
			for _, id := range ids {
				e, err := book.Erratum(id)
				if err != nil {
					return err
				}
				errata = append(errata, e)
			}
			if err := lib.DeleteErrata(book, errata); err != nil {
				return err
			}

			data, err := lib.Export()
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d errata from %s, %d remaining. Written to %s\n",
				len(errata), book.Title, book.Len(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&bookID, "book", "", "Book id (see the books command)")
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "Errata ids to delete")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Where to write the updated highlights file")
	_ = cmd.MarkFlagRequired("book")
	_ = cmd.MarkFlagRequired("ids")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// samePath reports whether a and b name the same file.
func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	if absA == absB {
		return true, nil
	}

	infoA, errA := os.Stat(absA)
	infoB, errB := os.Stat(absB)
	if errA != nil || errB != nil {
		return false, nil
	}
	return os.SameFile(infoA, infoB), nil
}
