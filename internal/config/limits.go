package config

const (
	// MaxCategoryNameLength is the maximum length for category names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxCategoryNameLength = 255

	// MaxDocumentCodeLength is the maximum length for document codes.
	// Codes are short identifiers like "QM-001".
	MaxDocumentCodeLength = 50

	// MaxDocumentTitleLength is the maximum length for document titles.
	MaxDocumentTitleLength = 255

	// MaxVersionLabelLength is the maximum length for revision version
	// labels. Labels are caller-supplied strings like "REV.002" and are not
	// validated for numeric monotonicity.
	MaxVersionLabelLength = 50

	// MaxNotesLength bounds free-text fields (changes, observations, notes).
	MaxNotesLength = 2000

	// DefaultMaxUploadBytes caps revision file uploads at 10 MiB. The cap is
	// enforced server-side with http.MaxBytesReader, not just at the form
	// layer. Override with MAX_UPLOAD_BYTES.
	DefaultMaxUploadBytes = 10 << 20
)
