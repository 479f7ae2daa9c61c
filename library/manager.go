package library

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// LibraryManager is a thin façade over a Library and its optional SQLite
// store, keeping CLI code simple. Every mutating call is saved; when the
// save fails the library is reloaded from the store, so pointers obtained
// before the failed call no longer belong to it.
type LibraryManager struct {
	lib    *Library
	db     *Database
	opts   []Option
	logger *slog.Logger
}

// ManagerConfig configures NewLibraryManager. An empty DBPath keeps the
// library in memory only. A nil Policy means DefaultPolicy.
type ManagerConfig struct {
	DBPath string
	Policy *Policy
	Logger *slog.Logger
}

// NewLibraryManager opens (or creates) the database at cfg.DBPath and loads
// the library stored there.
func NewLibraryManager(cfg ManagerConfig) (*LibraryManager, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	policy := DefaultPolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}
	opts := []Option{WithPolicy(policy), WithLogger(logger)}

	if cfg.DBPath == "" {
		return &LibraryManager{lib: New(opts...), logger: logger}, nil
	}

	db, err := NewDatabase(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	lib, err := db.Load(opts...)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load library: %w", err)
	}
	logger.Debug("library loaded", "path", cfg.DBPath, "resources", len(lib.resources), "members", len(lib.members))
	return &LibraryManager{lib: lib, db: db, opts: opts, logger: logger}, nil
}

// Close closes the underlying database, if any.
func (lm *LibraryManager) Close() error {
	if lm.db == nil {
		return nil
	}
	return lm.db.Close()
}

// Library exposes the managed aggregate.
func (lm *LibraryManager) Library() *Library { return lm.lib }

// Save writes the whole library to the store. Callers that change the
// Library directly, such as bulk imports, call it once when done.
func (lm *LibraryManager) Save() error { return lm.persist() }

func (lm *LibraryManager) persist() error {
	if lm.db == nil {
		return nil
	}
	err := lm.db.Save(lm.lib)
	if err == nil {
		return nil
	}
	lm.logger.Error("save library failed", "error", err)
	lib, loadErr := lm.db.Load(lm.opts...)
	if loadErr != nil {
		lm.logger.Error("reload after failed save", "error", loadErr)
		return fmt.Errorf("save library: %w", err)
	}
	lm.lib = lib
	return fmt.Errorf("save library: %w", err)
}

// ------------------ Resource helpers ------------------

func (lm *LibraryManager) AddResource(r *Resource) error {
	if err := lm.lib.AddResource(r); err != nil {
		return err
	}
	return lm.persist()
}

func (lm *LibraryManager) RemoveResource(id int64) (int, error) {
	n, err := lm.lib.RemoveResource(id)
	if err != nil {
		return 0, err
	}
	return n, lm.persist()
}

func (lm *LibraryManager) GetResource(id int64) (*Resource, error) { return lm.lib.FindResource(id) }

// GetAllResources lists the catalog ordered by "title", "id" or, for any
// other value, insertion order.
func (lm *LibraryManager) GetAllResources(orderBy string) []*Resource {
	all := lm.lib.Resources()
	switch orderBy {
	case "title":
		return ResourceSorter().SortByTitle(all)
	case "id":
		return ResourceSorter().SortByID(all)
	}
	return all
}

// ------------------ Member helpers ------------------

func (lm *LibraryManager) AddMember(m *Member) error {
	if err := lm.lib.AddMember(m); err != nil {
		return err
	}
	return lm.persist()
}

func (lm *LibraryManager) RemoveMember(id int64) (int, error) {
	n, err := lm.lib.RemoveMember(id)
	if err != nil {
		return 0, err
	}
	return n, lm.persist()
}

func (lm *LibraryManager) GetMember(id int64) (*Member, error) { return lm.lib.FindMember(id) }
func (lm *LibraryManager) GetAllMembers() []*Member            { return lm.lib.Members() }

// IssuedTo returns what a member holds, most recently issued first.
func (lm *LibraryManager) IssuedTo(memberID int64) ([]*Resource, error) {
	m, err := lm.lib.FindMember(memberID)
	if err != nil {
		return nil, err
	}
	return m.ViewIssued(), nil
}

// HolderName returns the name of the member holding r, or "" when nobody
// does.
func (lm *LibraryManager) HolderName(r *Resource) string {
	if m := lm.lib.holder(r); m != nil {
		return m.Name
	}
	return ""
}

// ------------------ Circulation ------------------

func (lm *LibraryManager) Issue(memberID, resourceID int64) (Transaction, error) {
	t, err := lm.lib.Issue(memberID, resourceID)
	if err != nil {
		return Transaction{}, err
	}
	return t, lm.persist()
}

func (lm *LibraryManager) Return(memberID, resourceID int64, daysLate int) (Transaction, error) {
	t, err := lm.lib.Return(memberID, resourceID, daysLate)
	if err != nil {
		return Transaction{}, err
	}
	return t, lm.persist()
}

// History returns the transaction log, oldest first, or the recent-activity
// stack when recent is set.
func (lm *LibraryManager) History(recent bool) []Transaction {
	if recent {
		return lm.lib.RecentActivity()
	}
	return lm.lib.Transactions()
}

// ------------------ Search ------------------

func (lm *LibraryManager) SearchByTitle(title string) (*Resource, error) {
	r, ok := ResourceSorter().SearchByTitle(lm.lib.Resources(), title)
	if !ok {
		return nil, newError(CodeNotFound, "no resource titled %q", title)
	}
	return r, nil
}

func (lm *LibraryManager) SearchByID(id int64) (*Resource, error) {
	r, ok := ResourceSorter().SearchByID(lm.lib.Resources(), id)
	if !ok {
		return nil, resourceNotFound(id)
	}
	return r, nil
}

// SearchResources matches q against titles and authors, ignoring case.
// With a database the search runs there and returns detached copies.
func (lm *LibraryManager) SearchResources(q string) ([]*Resource, error) {
	if lm.db != nil {
		return lm.db.SearchResources(q)
	}
	q = strings.ToLower(strings.TrimSpace(q))
	results := []*Resource{}
	if q == "" {
		return results, nil
	}
	for _, r := range lm.lib.Resources() {
		if strings.Contains(strings.ToLower(r.Title), q) || strings.Contains(strings.ToLower(r.Author), q) {
			results = append(results, r)
		}
	}
	return results, nil
}

// ------------------ Reporting ------------------

func (lm *LibraryManager) Report() string { return lm.lib.GenerateReport() }

// ExportJSON writes the library snapshot as indented JSON.
func (lm *LibraryManager) ExportJSON(w io.Writer) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(lm.lib.Snapshot())
}

// ------------------ Utilities ------------------

// PrettyResource formats a resource for lists.
func PrettyResource(r *Resource, holder string) string {
	return fmt.Sprintf("%-5d %-8s %-30s %-25s %-10t %-25s", r.ID, r.Kind(), r.Title, r.Author, r.Available, holder)
}
