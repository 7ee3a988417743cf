package cli

// ExitCode maps the outcome of a run to the process exit status.
// Every failure kind is fatal.
func ExitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}
