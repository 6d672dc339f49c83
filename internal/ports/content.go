package ports

// ContentResolver maps stored content filenames to absolute local paths the
// channel driver can attach. Resolution fails fast before a run starts so a
// missing or corrupt file never surfaces mid-run.
type ContentResolver interface {
	// ResolveMedia resolves image/video filenames.
	ResolveMedia(names []string) ([]string, error)

	// ResolveDocuments resolves document filenames and validates them.
	ResolveDocuments(names []string) ([]string, error)
}
