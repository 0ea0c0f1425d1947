package progress

import (
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// NewNopSink returns a sink that drops every event, used for --json output
func NewNopSink() usecase.ProgressSink {
	return usecase.NopProgress{}
}
