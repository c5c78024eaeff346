package warden

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAIRejection(t *testing.T) {
	msg := FormatAIRejection([]string{"b.rs"}, []string{"a.rs is empty"})

	want := "The previous output was rejected by the Warden Protocol.\n\n" +
		"MISSING FILES (Declared in MANIFEST but no #__WARDEN_FILE__# block found):\n" +
		"- b.rs\n\n" +
		"VALIDATION ERRORS:\n" +
		"- a.rs is empty\n\n" +
		"Please provide the missing or corrected files using #__WARDEN_FILE__# path ... #__WARDEN_END__#"
	assert.Equal(t, want, msg)
}

func TestFormatAIRejection_Tip(t *testing.T) {
	msg := FormatAIRejection(nil, []string{"a.rs:3: Detected lazy truncation marker: '// ...'. Full file required."})

	assert.NotContains(t, msg, "MISSING FILES")
	assert.Contains(t, msg, "TIP: ")
	assert.Contains(t, msg, "'// warden:ignore'")
	assert.True(t, strings.HasSuffix(msg, BlockClose))
}

func TestFormatVerificationFailure(t *testing.T) {
	msg := FormatVerificationFailure("\n> go vet ./...\nboom\n\n")
	assert.Contains(t, msg, "FAILURE LOG:\n> go vet ./...\nboom\n\n")
	assert.Contains(t, msg, "post-application verification failed")
}

func TestSplitSecurityErrors(t *testing.T) {
	security, other := SplitSecurityErrors([]string{
		"a.go is empty",
		"SECURITY: absolute path not allowed: /x",
		"b.go:1: Detected lazy truncation marker: '// ...'. Full file required.",
	})
	assert.Equal(t, []string{"SECURITY: absolute path not allowed: /x"}, security)
	assert.Len(t, other, 2)
}

func TestFormatOutcome(t *testing.T) {
	out := FormatOutcome(ValidationFailure{
		Errors:  []string{"a.go is empty", "SECURITY: sensitive path blocked: .env"},
		Missing: []string{"b.go"},
	})
	sec := strings.Index(out, "SECURITY:")
	missing := strings.Index(out, "b.go")
	content := strings.Index(out, "a.go is empty")
	assert.True(t, sec >= 0 && sec < missing && missing < content, out)

	out = FormatOutcome(Success{Written: []string{"a.go"}, Deleted: []string{"old.go"}, BackedUp: true})
	assert.Contains(t, out, "a.go")
	assert.Contains(t, out, "old.go")
	assert.Contains(t, out, BackupDir)

	assert.Contains(t, FormatOutcome(ParseError{Message: "Operation cancelled by user."}), "Operation cancelled by user.")
	assert.Contains(t, FormatOutcome(WriteError{Message: "disk full"}), "disk full")
}

func TestFormatFeedback(t *testing.T) {
	assert.Contains(t, FormatFeedback("fix it", true), "Copied to clipboard")
	assert.NotContains(t, FormatFeedback("fix it", false), "Copied to clipboard")
}
