package pgtest

import (
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"strings"

	"golang.org/x/exp/slices"
)

// ErrorWithStacktrace is a test failure annotated with the frames of test code that led to it.
type ErrorWithStacktrace struct {
	Message    string
	Stacktrace []StacktraceInfo
}

type StacktraceInfo struct {
	FileName string
	Package  string
	Function string
	Line     int
}

func (e ErrorWithStacktrace) Error() string { return e.Message }

func (s StacktraceInfo) String() string {
	pkg := strings.TrimPrefix(s.Package, rootPackageName()+"/")
	return fmt.Sprintf("%s.%s (%s:%d)", pkg, s.Function, s.FileName, s.Line)
}

// testify prefixes its messages with its own trace, which is wrong once a failure is recovered
// in the Driver.
var testifyTracePrefix = regexp.MustCompile(`^(?s:\s*Error Trace:.*\sError:\s*)`)

const scopeFunction = "(*T).run"

func transformError(err error, stacktrace []StacktraceInfo) error {
	message := err.Error()
	if loc := testifyTracePrefix.FindStringIndex(message); loc != nil {
		message = strings.TrimSpace(message[loc[1]:])
	}
	if len(stacktrace) == 0 {
		return errors.New(message)
	}
	return ErrorWithStacktrace{Message: message, Stacktrace: stacktrace}
}

func currentPackageName() string {
	pc, _, _, ok := runtime.Caller(0)
	if !ok {
		return "?"
	}
	f := runtime.FuncForPC(pc)
	if f == nil {
		return "?"
	}
	pkg, _ := parsePackageAndFunctionName(f.Name())
	return pkg
}

// rootPackageName is the module path, used to shorten package names in stacktraces.
func rootPackageName() string {
	parts := strings.SplitN(currentPackageName(), "/", 4)
	return strings.Join(parts[:min(len(parts), 3)], "/")
}

// getStacktrace returns the frames of its caller's stack down to the test scope. Frames in this
// package are dropped unless includeFrameworkCode is set, and so are functions named in helperFns.
func getStacktrace(includeFrameworkCode bool, helperFns []string) []StacktraceInfo {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	ownPackage := currentPackageName()

	ret := []StacktraceInfo{}
	for {
		frame, more := frames.Next()
		if frame.Function == "" {
			break
		}
		pkg, fn := parsePackageAndFunctionName(frame.Function)
		if pkg == ownPackage && fn == scopeFunction {
			break
		}
		keep := (includeFrameworkCode || pkg != ownPackage) && !slices.Contains(helperFns, frame.Function)
		if keep {
			ret = append(ret, StacktraceInfo{
				FileName: frame.File[strings.LastIndex(frame.File, "/")+1:],
				Package:  pkg,
				Function: fn,
				Line:     frame.Line,
			})
		}
		if !more {
			break
		}
	}
	return ret
}

// parsePackageAndFunctionName splits "example.com/a/b.(*T).run" into "example.com/a/b" and
// "(*T).run".
func parsePackageAndFunctionName(fullName string) (string, string) {
	lastSlash := strings.LastIndex(fullName, "/")
	dot := strings.Index(fullName[lastSlash+1:], ".")
	if dot < 0 {
		return fullName, ""
	}
	end := lastSlash + 1 + dot
	return fullName[:end], fullName[end+1:]
}
