package command

import goruntime "runtime"

// Shell maps a script verb to the command line that runs it on the host.
type Shell interface {
	Name() string
	Command(verb string) (string, []string)
}

type posixShell struct{}

// PosixShell runs <verb>.sh through /bin/sh.
func PosixShell() Shell {
	return posixShell{}
}

func (posixShell) Name() string {
	return "posix"
}

func (posixShell) Command(verb string) (string, []string) {
	return "/bin/sh", []string{verb + ".sh"}
}

type windowsShell struct{}

// WindowsShell runs <verb>.cmd through cmd /c.
func WindowsShell() Shell {
	return windowsShell{}
}

func (windowsShell) Name() string {
	return "windows"
}

func (windowsShell) Command(verb string) (string, []string) {
	return "cmd", []string{"/c", verb + ".cmd"}
}

func ShellFor(goos string) Shell {
	if goos == "windows" {
		return WindowsShell()
	}
	return PosixShell()
}

// DefaultShell selects the shell for the platform this binary was built for.
func DefaultShell() Shell {
	return ShellFor(goruntime.GOOS)
}
