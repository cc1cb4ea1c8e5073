package eval

// Status codes returned by the shell itself.
//
// POSIX specifies 126 for a command that exists but cannot run, 127 for
// command not found, and 128+N for death by signal N; 2 is the
// conventional status for syntax errors (dash and bash both use it).
// The statement-level failure codes in the 100s are our own; scripts
// can only rely on them being nonzero.
//
// 0 for success is universal enough that no constant is defined for it.
const (
	StatusBuiltinError = 1

	StatusSyntaxError = 2

	StatusPipeError        = 100
	StatusWaitError        = 101
	StatusWaitOther        = 102
	StatusRedirectionError = 103
	StatusExpansionError   = 104
	StatusShellBug         = 105

	StatusCommandNotExecutable = 126
	StatusCommandNotFound      = 127
	StatusSignalBase           = 128
)
