//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package invoke

import "os/exec"

// configureProcess keeps the default cancel behavior, which kills only the
// direct child.
func configureProcess(*exec.Cmd) {}
