//go:build !linux && !darwin

package cmd

// diskFree is unsupported on this platform; doctor omits the free-space line.
func diskFree(string) (uint64, bool) {
	return 0, false
}
