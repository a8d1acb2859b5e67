package packaging

import (
	"fmt"
	"strings"
)

// ReduceInstallErrors formats the errors of an install request as a single
// numbered list. It returns "<empty>" when there are none.
func ReduceInstallErrors(req *InstallRequest) string {
	if req == nil || len(req.Errors) == 0 {
		return "<empty>"
	}
	var b strings.Builder
	b.WriteString("Installation errors: ")
	for i, msg := range req.Errors {
		fmt.Fprintf(&b, "\n%d) %s", i+1, msg)
	}
	return b.String()
}

// TimeoutError is returned by [Install] when polling times out before the
// request reaches a terminal status. Request holds the last observed state.
type TimeoutError struct {
	Request *InstallRequest
}

func (e *TimeoutError) Error() string {
	if e.Request == nil {
		return "install request polling timed out"
	}
	return fmt.Sprintf("install request %s polling timed out with status %s", e.Request.ID, e.Request.Status)
}
