package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"complaintbot/backend/internal/config"
	"complaintbot/backend/internal/localization"
	"complaintbot/backend/internal/models"
	"complaintbot/backend/internal/render"
	"complaintbot/backend/internal/storage"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

const usage = `Usage: admin <command> [args]

Commands:
  list [pending|approved|rejected] [limit]   list archived complaints, newest first
  show <complaint_id>                        print one complaint
  stats                                      count complaints per decision`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.LoadArchive()
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}
	db, err := storage.OpenPostgres(cfg.DSN())
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	storageSvc := storage.NewStorageService(db, nil) // Redis для CLI не потрібен

	r := render.New(localization.MustDefault(), cfg.Lang)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, storageSvc, r, os.Stdout, os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}
}

// run executes one CLI command against the archive.
func run(ctx context.Context, a storage.Archive, r *render.Renderer, out io.Writer, args []string) error {
	switch args[0] {
	case "list":
		decision, limit, err := parseListArgs(args[1:])
		if err != nil {
			return err
		}
		return listComplaints(ctx, a, out, decision, limit)
	case "show":
		if len(args) != 2 {
			return errors.New("usage: admin show <complaint_id>")
		}
		return showComplaint(ctx, a, r, out, args[1])
	case "stats":
		return printStats(ctx, a, out)
	default:
		return errors.Errorf("unknown command %q\n\n%s", args[0], usage)
	}
}

func parseListArgs(args []string) (models.Decision, int, error) {
	var decision models.Decision
	limit := storage.DefaultListLimit
	for _, arg := range args {
		switch d := models.Decision(arg); d {
		case models.DecisionPending, models.DecisionApproved, models.DecisionRejected:
			decision = d
			continue
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return "", 0, errors.Errorf("invalid argument %q: expected a decision or a positive limit", arg)
		}
		limit = n
	}
	return decision, limit, nil
}

func listComplaints(ctx context.Context, a storage.Archive, out io.Writer, decision models.Decision, limit int) error {
	recs, err := a.List(ctx, decision, limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, "No complaints found.")
		return nil
	}

	table := tablewriter.NewWriter(out)
	// перший рядок слугує заголовком
	if err := table.Append([]string{"ID", "CREATED", "DECISION", "SUBJECT", "POSITION"}); err != nil {
		return errors.Wrap(err, "append header row")
	}
	for _, c := range recs {
		row := []string{c.ID, c.CreatedAt.Format("2006-01-02 15:04"), string(c.Decision), c.SubjectName, c.Position}
		if err := table.Append(row); err != nil {
			return errors.Wrapf(err, "append row %s", c.ID)
		}
	}
	return table.Render()
}

func showComplaint(ctx context.Context, a storage.Archive, r *render.Renderer, out io.Writer, id string) error {
	c, err := a.Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Complaint %s\nCreated: %s\nDecision: %s\n", c.ID, c.CreatedAt.Format(time.RFC3339), c.Decision)
	if c.ResolvedAt != nil {
		fmt.Fprintf(out, "Resolved: %s\n", c.ResolvedAt.Format(time.RFC3339))
	}
	if c.RejectReason != "" {
		fmt.Fprintf(out, "Reject reason: %s\n", c.RejectReason)
	}
	fmt.Fprintf(out, "\n%s\n", r.Summary(c))
	return nil
}

func printStats(ctx context.Context, a storage.Archive, out io.Writer) error {
	st, err := a.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "pending:  %d\napproved: %d\nrejected: %d\ntotal:    %d\n",
		st.Pending, st.Approved, st.Rejected, st.Total())
	return nil
}
