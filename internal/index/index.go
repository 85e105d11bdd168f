package index

// Index defines the interface for reference-index operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Index interface {
	UpsertDocument(row DocumentRow, refs []Ref) error
	DeleteDocument(path string) error
	GetChecksum(path string) (string, error)
	AllPaths() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	ReferencingDocuments(target string) ([]string, error)
	SourceNote(target string) (string, error)
	Resolve(ref, fromDoc string) (string, error)
	Close() error
}

// Verify *DB satisfies Index at compile time.
var _ Index = (*DB)(nil)
