package config

const (
	// MaxDocumentTitleLength is the maximum length for document titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxDocumentTitleLength = 255

	// MaxTreeDepth bounds how deep documents may nest. Ancestor walks and
	// cascade sweeps stop here, so a corrupted parent chain cannot loop forever.
	MaxTreeDepth = 64

	// DefaultDocumentTitle is used when a document is created with a blank title.
	DefaultDocumentTitle = "Untitled"
)
