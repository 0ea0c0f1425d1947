package progress

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

func TestLineSink(t *testing.T) {
	var out bytes.Buffer
	sink := NewLineSink(&out)
	ctx := context.Background()

	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: "submit", Message: "Deploying MEME to sepolia", Spinner: true})
	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: "submit", Message: "Deploying MEME to sepolia", Spinner: true})
	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: "confirm", Message: "Waiting for confirmation"})
	sink.Error("boom")

	assert.Equal(t, "submit: Deploying MEME to sepolia\nconfirm: Waiting for confirmation\nerror: boom\n", out.String())
}

func TestSpinnerSink_TracksStages(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	sink := NewSpinnerSinkTo(&out)
	ctx := context.Background()

	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: "submit", Message: "Deploying"})
	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: "confirm", Message: "Waiting"})
	sink.Info("tx sent")
	sink.Stop()

	assert.Len(t, sink.stages, 2)
	assert.False(t, sink.stages[0].EndTime.IsZero())
	assert.Contains(t, sink.trail(), "✓ submit")
	assert.Contains(t, sink.trail(), "● confirm")
	assert.Contains(t, out.String(), "tx sent")
}
