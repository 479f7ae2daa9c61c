package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"library-catalog/library"
)

// ------------------ add ------------------

// resourceFlags are the fields every resource kind shares.
type resourceFlags struct {
	id     int64
	title  string
	author string
	year   int
}

func (f *resourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.id, "id", 0, "resource id")
	cmd.Flags().StringVar(&f.title, "title", "", "title")
	cmd.Flags().StringVar(&f.author, "author", "", "author")
	cmd.Flags().IntVar(&f.year, "year", 0, "publication year")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("title")
}

func newAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a resource or a member",
	}
	cmd.AddCommand(newAddBookCmd(a), newAddEBookCmd(a), newAddJournalCmd(a), newAddMemberCmd(a))
	return cmd
}

func newAddBookCmd(a *app) *cobra.Command {
	var (
		rf   resourceFlags
		info library.BookInfo
	)
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Add a printed book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.addResource(cmd.OutOrStdout(), library.NewBook(rf.id, rf.title, rf.author, rf.year, info))
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&info.Publisher, "publisher", "", "publisher")
	cmd.Flags().StringVar(&info.ISBN, "isbn", "", "ISBN")
	return cmd
}

func newAddEBookCmd(a *app) *cobra.Command {
	var (
		rf   resourceFlags
		info library.EBookInfo
	)
	cmd := &cobra.Command{
		Use:   "ebook",
		Short: "Add an electronic book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.addResource(cmd.OutOrStdout(), library.NewEBook(rf.id, rf.title, rf.author, rf.year, info))
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&info.FileSize, "file-size", "", "file size, e.g. 3MB")
	cmd.Flags().StringVar(&info.Format, "format", "", "file format, e.g. epub")
	return cmd
}

func newAddJournalCmd(a *app) *cobra.Command {
	var (
		rf   resourceFlags
		info library.JournalInfo
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Add a research journal issue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.addResource(cmd.OutOrStdout(), library.NewJournal(rf.id, rf.title, rf.author, rf.year, info))
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&info.JournalName, "journal", "", "journal name")
	cmd.Flags().IntVar(&info.Volume, "volume", 0, "volume number")
	return cmd
}

func (a *app) addResource(out io.Writer, r *library.Resource) error {
	if err := a.mgr.AddResource(r); err != nil {
		return fmt.Errorf("adding %s: %w", r.Kind(), err)
	}
	fmt.Fprintf(out, "Added %s ID %d: %s\n", r.Kind(), r.ID, r.Details())
	return nil
}

func newAddMemberCmd(a *app) *cobra.Command {
	var (
		id                 int64
		name, email, phone string
	)
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Register a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := library.NewMember(id, name, email, phone)
			if err := a.mgr.AddMember(m); err != nil {
				return fmt.Errorf("adding member: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added member '%s' with ID %d\n", name, id)
			return nil
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "member id")
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// ------------------ remove ------------------

func newRemoveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove resources or members by id",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "resource <id>",
			Short: "Remove every resource with the id",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("resource", args[0])
				if err != nil {
					return err
				}
				n, err := a.mgr.RemoveResource(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d resource(s) with ID %d\n", n, id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "member <id>",
			Short: "Remove every member with the id",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("member", args[0])
				if err != nil {
					return err
				}
				n, err := a.mgr.RemoveMember(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d member(s) with ID %d\n", n, id)
				return nil
			},
		},
	)
	return cmd
}

// ------------------ circulation ------------------

func newIssueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "issue <member-id> <resource-id>",
		Short: "Issue a resource to a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			memberID, resourceID, err := parseIDPair(args)
			if err != nil {
				return err
			}
			t, err := a.mgr.Issue(memberID, resourceID)
			if err != nil {
				return fmt.Errorf("issue: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Summary())
			return nil
		},
	}
}

func newReturnCmd(a *app) *cobra.Command {
	var daysLate int
	cmd := &cobra.Command{
		Use:   "return <member-id> <resource-id>",
		Short: "Return a resource and charge any fine",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			memberID, resourceID, err := parseIDPair(args)
			if err != nil {
				return err
			}
			t, err := a.mgr.Return(memberID, resourceID, daysLate)
			if err != nil {
				return fmt.Errorf("return: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, t.Summary())
			if m, err := a.mgr.GetMember(memberID); err == nil {
				fmt.Fprintf(out, "Total fine for %s: Rs. %d\n", m.Name, m.TotalFine())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&daysLate, "days-late", 0, "days past the due date")
	return cmd
}

// ------------------ listing ------------------

func newListCmd(a *app) *cobra.Command {
	var sortBy string
	resources := &cobra.Command{
		Use:   "resources",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.printResources(cmd.OutOrStdout(), a.mgr.GetAllResources(sortBy))
			return nil
		},
	}
	resources.Flags().StringVar(&sortBy, "sort", "", "order by title or id (default insertion order)")

	members := &cobra.Command{
		Use:   "members",
		Short: "List registered members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			members := a.mgr.GetAllMembers()
			if len(members) == 0 {
				fmt.Fprintln(out, "No members registered.")
				return nil
			}
			fmt.Fprintf(out, "%-6s %-25s %-30s %-8s %s\n", "ID", "Name", "Email", "Issued", "Fine")
			fmt.Fprintln(out, strings.Repeat("-", 80))
			for _, m := range members {
				fmt.Fprintf(out, "%-6d %-25s %-30s %-8d Rs. %d\n",
					m.ID, truncateString(m.Name, 25), truncateString(m.Email, 30), m.IssuedCount(), m.TotalFine())
			}
			return nil
		},
	}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List resources or members",
	}
	cmd.AddCommand(resources, members)
	return cmd
}

func (a *app) printResources(out io.Writer, resources []*library.Resource) {
	if len(resources) == 0 {
		fmt.Fprintln(out, "No resources found.")
		return
	}
	fmt.Fprintf(out, "%-5s %-8s %-30s %-25s %-10s %-25s\n", "ID", "Kind", "Title", "Author", "Available", "Holder")
	fmt.Fprintln(out, strings.Repeat("-", 110))
	for _, r := range resources {
		shown := *r
		shown.Title = truncateString(r.Title, 30)
		shown.Author = truncateString(r.Author, 25)
		fmt.Fprintln(out, library.PrettyResource(&shown, a.mgr.HolderName(r)))
	}
}

func newIssuedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "issued <member-id>",
		Short: "Show what a member holds, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("member", args[0])
			if err != nil {
				return err
			}
			issued, err := a.mgr.IssuedTo(id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(issued) == 0 {
				fmt.Fprintln(out, "Nothing issued.")
				return nil
			}
			for i, r := range issued {
				fmt.Fprintf(out, "%d. [%d] %s\n", i+1, r.ID, r.FullDetails())
			}
			return nil
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		title string
		id    int64
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Find resources by exact title, by id, or by text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch {
			case cmd.Flags().Changed("title"):
				r, err := a.mgr.SearchByTitle(title)
				if err != nil {
					return err
				}
				a.printResources(out, []*library.Resource{r})
			case cmd.Flags().Changed("id"):
				r, err := a.mgr.SearchByID(id)
				if err != nil {
					return err
				}
				a.printResources(out, []*library.Resource{r})
			case len(args) == 1:
				results, err := a.mgr.SearchResources(args[0])
				if err != nil {
					return fmt.Errorf("search: %w", err)
				}
				a.printResources(out, results)
			default:
				return fmt.Errorf("give a query, --title or --id")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "exact title")
	cmd.Flags().Int64Var(&id, "id", 0, "resource id")
	return cmd
}

// ------------------ reporting ------------------

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print resource, member and transaction counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.OutOrStdout(), a.mgr.Report())
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var recent bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the transaction log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			txns := a.mgr.History(recent)
			if len(txns) == 0 {
				fmt.Fprintln(out, "No transactions recorded.")
				return nil
			}
			for _, t := range txns {
				fmt.Fprintln(out, t.Summary())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&recent, "recent", false, "newest first")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the whole library as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.mgr.ExportJSON(cmd.OutOrStdout())
		},
	}
}

// newDemoCmd runs the sample circulation scenario against a fresh in-memory
// library.
func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "demo",
		Short:       "Run a sample issue/return scenario in memory",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{noStore: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			lib := library.New(
				library.WithPolicy(a.cfg.Circulation.Policy()),
				library.WithLogger(a.log),
			)
			book := library.NewBook(1, "C++ Programming", "Bjarne Stroustrup", 2020, library.BookInfo{})
			member := library.NewMember(101, "John Doe", "john@example.com", "1234567890")
			if err := lib.AddResource(book); err != nil {
				return err
			}
			if err := lib.AddMember(member); err != nil {
				return err
			}

			if err := member.IssueResource(book); err != nil {
				return err
			}
			lib.RecordTransaction(library.NewTransaction(library.ActionIssue, book.ID, member.ID, time.Now(), 0))

			fmt.Fprint(cmd.OutOrStdout(), lib.GenerateReport())
			return nil
		},
	}
}

// ------------------ helpers ------------------

func parseID(what, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s ID: %s", what, s)
	}
	return id, nil
}

func parseIDPair(args []string) (memberID, resourceID int64, err error) {
	if memberID, err = parseID("member", args[0]); err != nil {
		return 0, 0, err
	}
	if resourceID, err = parseID("resource", args[1]); err != nil {
		return 0, 0, err
	}
	return memberID, resourceID, nil
}

// truncateString shortens s to maxLength runes, ending in "..." when cut.
func truncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-3]) + "..."
}
