package warden

import (
	"fmt"
	"strings"
)

// FormatAIRejection builds the message that is pasted back to the model so
// it can resend exactly the files that were missing or rejected.
func FormatAIRejection(missing, errs []string) string {
	var b strings.Builder
	b.WriteString("The previous output was rejected by the Warden Protocol.\n\n")

	if len(missing) > 0 {
		fmt.Fprintf(&b, "MISSING FILES (Declared in MANIFEST but no %s block found):\n", FileOpen)
		for _, f := range missing {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	if len(errs) > 0 {
		b.WriteString("VALIDATION ERRORS:\n")
		tip := false
		for _, e := range errs {
			fmt.Fprintf(&b, "- %s\n", e)
			if strings.Contains(e, "truncation marker") || strings.Contains(e, "Banned") {
				tip = true
			}
		}
		b.WriteString("\n")
		if tip {
			fmt.Fprintf(&b, "TIP: If you are actively 'dogfooding' or intentionally using banned patterns, use '// %s' to bypass.\n\n", IgnoreMarker)
		}
	}

	fmt.Fprintf(&b, "Please provide the missing or corrected files using %s path ... %s", FileOpen, BlockClose)
	return b.String()
}

func FormatVerificationFailure(log string) string {
	return fmt.Sprintf(
		"The changes were applied, but post-application verification failed.\n\nFAILURE LOG:\n%s\n\nPlease fix the implementation so that checks pass.",
		strings.TrimSpace(log),
	)
}

// SplitSecurityErrors separates path-safety violations from quality errors.
func SplitSecurityErrors(errs []string) (security, other []string) {
	for _, e := range errs {
		if strings.HasPrefix(e, "SECURITY:") {
			security = append(security, e)
		} else {
			other = append(other, e)
		}
	}
	return security, other
}
