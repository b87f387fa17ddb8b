// Package diffmodel defines the value types the diff ingestion pipeline
// produces: file change records, hunks, provenance, and the envelope that
// wraps a run's payload or error. Every record is value-typed and created
// once per run; nothing here is mutated after the cap engine completes.
package diffmodel

// Status is one of the six canonical change statuses. Unknown status
// letters are a driver-level error, never a silently-passed-through value.
type Status string

const (
	StatusAdded     Status = "A"
	StatusModified  Status = "M"
	StatusDeleted   Status = "D"
	StatusRenamed   Status = "R"
	StatusCopied    Status = "C"
	StatusTypeChang Status = "T"
)

// statusOrder fixes the secondary sort key used by Change Discovery:
// A < C < D < M < R < T.
var statusOrder = map[Status]int{
	StatusAdded:     0,
	StatusCopied:    1,
	StatusDeleted:   2,
	StatusModified:  3,
	StatusRenamed:   4,
	StatusTypeChang: 5,
}

// Rank returns the fixed ordering rank of a status, or -1 if unknown.
func (s Status) Rank() int {
	if r, ok := statusOrder[s]; ok {
		return r
	}
	return -1
}

// RenameTiebreaker names which rule resolved a near-tie among rename
// candidates, or "" if no near-tie existed.
type RenameTiebreaker string

const (
	TiebreakNone RenameTiebreaker = ""
	TiebreakPath RenameTiebreaker = "path"
	TiebreakSize RenameTiebreaker = "size"
	TiebreakLex  RenameTiebreaker = "lex"
)

// Submodule carries the old and new commit SHAs of a gitlink change.
type Submodule struct {
	OldSHA string
	NewSHA string
}

// Hunk is a single contiguous block of a unified diff.
type Hunk struct {
	Header   string
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Added    int
	Deleted  int
	Patch    string

	EOLOnlyChange        bool
	WhitespaceOnlyChange bool
}

// ByteLen returns the UTF-8 byte cost of the hunk's patch text, the unit the
// cap engine budgets against.
func (h Hunk) ByteLen() int {
	return len(h.Patch)
}

// FileChangeRecord describes one entry in the change set between two
// commits, after Change Discovery, Hunk Extraction, and Cap Engine
// processing have all run.
type FileChangeRecord struct {
	Status Status

	PathOld string // "" if absent
	PathNew string // "" if absent

	HasRenameScore bool
	RenameScore    int // percent, 0-100; valid only if HasRenameScore
	RenameTiebreak RenameTiebreaker

	ModeOld string // six-char octal string, "" if absent
	ModeNew string

	HasSizeOld bool
	SizeOld    int64
	HasSizeNew bool
	SizeNew    int64

	IsBinary    bool
	IsSubmodule bool

	EOLOnlyChange        bool
	WhitespaceOnlyChange bool
	Summarized           bool
	Truncated            bool
	OmittedHunksCount    int // meaningful only when Truncated

	SubmoduleSHAs *Submodule

	Hunks []Hunk
}

// EffectivePath is path_new if present, else path_old; the primary sort key
// for Change Discovery's output ordering.
func (f FileChangeRecord) EffectivePath() string {
	if f.PathNew != "" {
		return f.PathNew
	}
	return f.PathOld
}

// PatchByteTotal sums the byte cost of the record's currently-retained
// hunks.
func (f FileChangeRecord) PatchByteTotal() int {
	total := 0
	for _, h := range f.Hunks {
		total += h.ByteLen()
	}
	return total
}

// CapsBlock records the byte budgets and context-line count a run was
// executed under.
type CapsBlock struct {
	CapTotal     int
	CapFile      int
	ContextLines int
}

// RenameDetectionBlock records the rename-detection configuration a run was
// executed under.
type RenameDetectionBlock struct {
	Threshold int
}

// Provenance carries the metadata describing how a payload was produced.
type Provenance struct {
	RepoURL         string
	CommitGood      string
	CommitCandidate string
	BranchName      string // "" if absent
	Caps            CapsBlock
	RenameDetection RenameDetectionBlock
	GitVersion      string
	DiffAlgorithm   string // always "myers"
	EnvLocks        map[string]string
	Checksum        string
}

// DefaultEnvLocks returns the fixed env_locks mapping every provenance
// block carries.
func DefaultEnvLocks() map[string]string {
	return map[string]string{
		"LC_ALL":        "C",
		"color":         "off",
		"core.autocrlf": "false",
	}
}

// Payload is the full output of a successful run.
type Payload struct {
	Provenance        Provenance
	Files             []FileChangeRecord
	OmittedFilesCount int
	Notes             []string
}

// AppendNote appends note to the payload's notes if it is not already
// present, preserving first-seen order.
func (p *Payload) AppendNote(note string) {
	for _, n := range p.Notes {
		if n == note {
			return
		}
	}
	p.Notes = append(p.Notes, note)
}

// ErrorInfo is the structured error half of an Envelope.
type ErrorInfo struct {
	Code    string
	Message string
	Details map[string]any
}

// Envelope is the single output shape of a run: either {ok:true,data} or
// {ok:false,error}.
type Envelope struct {
	OK    bool
	Data  *Payload
	Error *ErrorInfo
}

// Success wraps a payload in a successful envelope.
func Success(p *Payload) Envelope {
	return Envelope{OK: true, Data: p}
}

// Failure wraps a structured error in a failed envelope.
func Failure(code, message string, details map[string]any) Envelope {
	return Envelope{OK: false, Error: &ErrorInfo{Code: code, Message: message, Details: details}}
}
