package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"treasuremap/internal/infra/persistence/memory"
	"treasuremap/pkg/domain"
)

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	rec.Observe(context.Background(), "save_new", true, 2*time.Millisecond)
	rec.Observe(context.Background(), "save_new", false, time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Second)

	snap := rec.Snapshot()
	if snap.Results["save_new"]["success"] != 1 || snap.Results["save_new"]["error"] != 1 {
		t.Fatalf("unexpected results %+v", snap.Results)
	}
	if snap.DurationsMS["save_new"] < 3 {
		t.Fatalf("durations not accumulated: %v", snap.DurationsMS)
	}
	v := expvar.Get(rec.Name())
	if v == nil || !strings.Contains(v.String(), "save_new") {
		t.Fatalf("recorder not published under %s", rec.Name())
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	rec.Observe(context.Background(), "search", true, 10*time.Millisecond)
	rec.Observe(context.Background(), "search", false, 10*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "treasuremap_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			var status string
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "status" {
					status = lp.GetValue()
				}
			}
			counts[status] += m.GetCounter().GetValue()
		}
	}
	if counts["success"] != 1 || counts["error"] != 1 {
		t.Fatalf("unexpected counters %v", counts)
	}
	if len(rec.Collectors()) != 2 {
		t.Fatalf("expected two collectors")
	}
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("duplicate registration should fail")
	}
}

func TestMultiMetricsRecorderFansOut(t *testing.T) {
	a, b := &captureMetrics{}, &captureMetrics{}
	MultiMetricsRecorder{a, nil, b}.Observe(context.Background(), "get", true, 0)
	if a.last().op != "get" || b.last().op != "get" {
		t.Fatalf("observation not fanned out")
	}
}

func TestJSONTracerWritesLines(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	svc := NewService(memory.NewStore(), WithTracer(tracer))
	if _, err := svc.Get(context.Background(), "Zzzz"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	entries := tracer.Entries()
	if len(entries) != 1 || entries[0].Operation != "get" || entries[0].Status != "error" || entries[0].Error == "" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	var decoded JSONTraceEntry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded); err != nil {
		t.Fatalf("trace line not JSON: %v", err)
	}
	if decoded.Operation != "get" {
		t.Fatalf("decoded %+v", decoded)
	}
}

func TestServiceSpansEndWithOperationError(t *testing.T) {
	svc, metrics, tracer := newTestService(t, memory.NewStore())
	_ = svc.Delete(context.Background(), "Zzzz")
	if len(tracer.errs) != 1 || !errors.Is(tracer.errs[0], domain.ErrNotFound) {
		t.Fatalf("span should end with the error, got %v", tracer.errs)
	}
	if got := metrics.last(); got.op != "delete" || got.success {
		t.Fatalf("unexpected metrics %+v", got)
	}
}
