package domain

import "time"

type ImportOutcome string

const (
	ImportSucceeded ImportOutcome = "success"
	ImportFailed    ImportOutcome = "failed"
	ImportDuplicate ImportOutcome = "duplicate"
)

type ImportSource string

const (
	ImportSourceFile   ImportSource = "file"
	ImportSourceOIDC   ImportSource = "oidc"
	ImportSourceExport ImportSource = "export"
	ImportSourceManual ImportSource = "manual"
)

// ImportRecord is one ledger line describing what happened to a single input record.
type ImportRecord struct {
	Label            string
	AccountID        AccountID
	Email            string
	UserID           string
	Outcome          ImportOutcome
	ErrorKind        VerificationErrorKind
	Message          string
	SubscriptionType SubscriptionType
	UsageCurrent     float64
	UsageLimit       float64
	Source           ImportSource
	ImportedAt       time.Time
}
