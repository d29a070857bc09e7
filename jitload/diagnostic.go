package jitload

import "strings"

// noisyPrefixes are build-log lines every toolchain emits that carry no
// diagnostic value for a failed JIT build.
var noisyPrefixes = []string{
	"In file included from",
	"ld: warning:",
	"collect2:",
}

// filterDiagnostics strips known-noisy lines from a build tool's combined
// output so the diagnostic string returned to the caller stays focused on
// the actual error.
func filterDiagnostics(output string) string {
	lines := strings.Split(output, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		noisy := false
		for _, prefix := range noisyPrefixes {
			if strings.HasPrefix(strings.TrimSpace(line), prefix) {
				noisy = true
				break
			}
		}
		if !noisy {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
