package stacktrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	t.Parallel()

	stack := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/otpgate/internal/pkg/router.middlewareRecoverer.func1.1()
	/src/internal/pkg/router/middleware_recover.go:18 +0x4a
github.com/shandysiswandi/otpgate/internal/auth/usecase.(*Usecase).IssueOTP(...)
	/src/internal/auth/usecase/otp_issue.go:42
`)

	got := InternalPaths(stack)

	assert.Equal(t, []string{
		"internal/pkg/router/middleware_recover.go:18",
		"internal/auth/usecase/otp_issue.go:42",
	}, got)
}

func TestInternalPaths_NoInternalFrames(t *testing.T) {
	t.Parallel()

	assert.Empty(t, InternalPaths([]byte("goroutine 1 [running]:\nmain.main()\n\t/src/main.go:10 +0x1d\n")))
}
