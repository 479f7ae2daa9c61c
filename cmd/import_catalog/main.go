package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"library-catalog/library"
)

// catalogFile is the layout of the YAML import file.
type catalogFile struct {
	Resources []resourceEntry `yaml:"resources"`
	Members   []memberEntry   `yaml:"members"`
}

type resourceEntry struct {
	Kind   string `yaml:"kind"`
	ID     int64  `yaml:"id"`
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	Year   int    `yaml:"year"`

	library.BookInfo    `yaml:",inline"`
	library.EBookInfo   `yaml:",inline"`
	library.JournalInfo `yaml:",inline"`
}

type memberEntry struct {
	ID    int64  `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Phone string `yaml:"phone"`
}

func (e resourceEntry) toResource() (*library.Resource, error) {
	kind, err := library.ParseKind(e.Kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case library.KindEBook:
		return library.NewEBook(e.ID, e.Title, e.Author, e.Year, e.EBookInfo), nil
	case library.KindJournal:
		return library.NewJournal(e.ID, e.Title, e.Author, e.Year, e.JournalInfo), nil
	default:
		return library.NewBook(e.ID, e.Title, e.Author, e.Year, e.BookInfo), nil
	}
}

func main() {
	dbPath := flag.String("db", "library.db", "SQLite database to import into")
	fresh := flag.Bool("fresh", false, "delete the existing database first")
	strict := flag.Bool("strict", false, "reject duplicate ids")
	flag.Parse()

	path := "catalog.yaml"
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}

	if *fresh {
		fmt.Println("Cleaning up existing database files...")
		for _, file := range []string{*dbPath, *dbPath + "-shm", *dbPath + "-wal"} {
			if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
				fmt.Printf("Warning: Could not remove %s: %v\n", file, err)
			}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading catalog: %v\n", err)
		os.Exit(1)
	}
	var catalog catalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing catalog: %v\n", err)
		os.Exit(1)
	}

	policy := library.DefaultPolicy()
	policy.Strict = *strict
	manager, err := library.NewLibraryManager(library.ManagerConfig{DBPath: *dbPath, Policy: &policy})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	fmt.Printf("Importing from %s...\n", path)
	successCount, errorCount, err := importCatalog(os.Stdout, manager, catalog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error saving catalog: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d entries\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)

	if successCount > 0 {
		fmt.Println("\nCatalog:")
		fmt.Printf("%-5s %-8s %-50s %-30s\n", "ID", "Kind", "Title", "Author")
		fmt.Println(strings.Repeat("-", 95))
		for _, r := range manager.GetAllResources("id") {
			fmt.Printf("%-5d %-8s %-50s %-30s\n", r.ID, r.Kind(), truncateString(r.Title, 50), truncateString(r.Author, 30))
		}
	}
}

// importCatalog adds every entry, reporting progress to out, then saves the
// library once. It returns the success and failure counts.
func importCatalog(out io.Writer, mgr *library.LibraryManager, catalog catalogFile) (successCount, errorCount int, saveErr error) {
	lib := mgr.Library()
	for _, e := range catalog.Resources {
		fmt.Fprintf(out, "Importing: %s by %s... ", e.Title, e.Author)
		r, err := e.toResource()
		if err == nil {
			err = lib.AddResource(r)
		}
		if err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Fprintf(out, "SUCCESS (ID: %d)\n", r.ID)
		successCount++
	}

	for _, e := range catalog.Members {
		fmt.Fprintf(out, "Importing member: %s... ", e.Name)
		if err := lib.AddMember(library.NewMember(e.ID, e.Name, e.Email, e.Phone)); err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Fprintf(out, "SUCCESS (ID: %d)\n", e.ID)
		successCount++
	}
	return successCount, errorCount, mgr.Save()
}

func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
