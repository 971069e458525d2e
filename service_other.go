//go:build !windows

package main

// RunAsService reports that no service runtime is active. On non-Windows
// platforms the colorizer always runs as a plain CLI process.
func RunAsService() (bool, error) {
	return false, nil
}

// HandleServiceCommand ignores install/uninstall/start/stop on non-Windows
// platforms; the CLI falls through to its normal commands.
func HandleServiceCommand(args []string) bool {
	return false
}
