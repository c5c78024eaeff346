package warden

type Operation int

const (
	OpUpdate Operation = iota
	OpNew
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpNew:
		return "new"
	case OpDelete:
		return "delete"
	default:
		return "update"
	}
}

type ManifestEntry struct {
	Path string
	Op   Operation
}

// Manifest order is only used for display and mutation order.
type Manifest []ManifestEntry

type FileContent struct {
	Content   string
	LineCount int
}

// ExtractedFiles maps a relative path to the body of its file block.
type ExtractedFiles map[string]FileContent

// Outcome is the result of an apply run. It is closed: the only
// implementations are Success, ValidationFailure, ParseError and WriteError.
type Outcome interface {
	outcome()
}

type Success struct {
	Written        []string
	Deleted        []string
	RoadmapResults []string
	BackedUp       bool
}

type ValidationFailure struct {
	Errors    []string
	Missing   []string
	AIMessage string
}

type ParseError struct {
	Message string
}

type WriteError struct {
	Message string
}

func (Success) outcome()           {}
func (ValidationFailure) outcome() {}
func (ParseError) outcome()        {}
func (WriteError) outcome()        {}

// Changed reports whether the write touched anything worth verifying.
func (s Success) Changed() bool {
	return len(s.Written)+len(s.Deleted)+len(s.RoadmapResults) > 0
}

// IsFailure reports whether o ended the pipeline without applying anything.
func IsFailure(o Outcome) bool {
	switch o.(type) {
	case Success:
		return false
	case ValidationFailure, ParseError, WriteError:
		return true
	default:
		return true
	}
}
