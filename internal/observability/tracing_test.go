package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/signalsfoundry/polaralign/model"
	"go.opentelemetry.io/otel"
)

func TestInitTracingDisabled(t *testing.T) {
	tr, err := InitTracing(context.Background(), TracingConfig{})
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	_, span := otel.Tracer("test").Start(context.Background(), "align.AddSample")
	if span.SpanContext().IsValid() {
		t.Fatalf("disabled tracing produced a recording span")
	}
	span.End()
	tr.Shutdown(context.Background())
}

func TestInitTracingStdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	tr, err := InitTracing(context.Background(), TracingConfig{
		Enabled:     true,
		ServiceName: "polaralign-test",
		Exporter:    "stdout",
		SampleRatio: 1,
		Observer:    model.Observer{Name: "backyard", LatitudeDeg: 42, LongitudeDeg: -71},
		Writer:      &buf,
	})
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "align.ComputeAxis")
	span.End()
	tr.Shutdown(context.Background())

	out := buf.String()
	for _, want := range []string{"align.ComputeAxis", "observer.latitude_deg", "backyard"} {
		if !strings.Contains(out, want) {
			t.Fatalf("exported spans missing %q: %s", want, out)
		}
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"})
	if err == nil || !strings.Contains(err.Error(), "unsupported tracing exporter") {
		t.Fatalf("err = %v, want unsupported exporter", err)
	}
}

func TestNilTracingShutdown(t *testing.T) {
	var tr *Tracing
	tr.Shutdown(context.Background())
}
