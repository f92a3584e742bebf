package observability

import (
	"context"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTraceJobHandler_SpanPerExecution(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := tracesdk.NewTracerProvider(tracesdk.WithSyncer(exporter))
	tracing := &Tracing{provider: provider, tracer: provider.Tracer("test")}

	handled := 0
	wrapped := tracing.TraceJobHandler("save-draft-progress", func(client worker.JobClient, job entities.Job) {
		handled++
	})

	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42, ProcessInstanceKey: 7}}
	wrapped(nil, job)
	wrapped(nil, job)

	assert.Equal(t, 2, handled)
	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "save-draft-progress", spans[0].Name)
}

func TestNewTracing_EmptyEndpointIsNoOp(t *testing.T) {
	tracing, err := NewTracing("worker-manager", "")
	require.NoError(t, err)

	_, span := tracing.StartSpan(context.Background(), "job")
	span.End()
	tracing.Shutdown()
}
