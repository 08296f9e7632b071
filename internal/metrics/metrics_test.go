package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// newTestRecorder builds a Recorder backed by a fresh isolated registry.
func newTestRecorder(t *testing.T) (*Recorder, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New(reg), reg
}

func Test_Metrics_ResolutionCounter(t *testing.T) {
	t.Parallel()
	r, reg := newTestRecorder(t)

	r.ObserveResolution("tag")
	r.ObserveResolution("tag")
	r.ObserveResolution("branch-date")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := false
	for _, mf := range mfs {
		if mf.GetName() != "checkversion_resolutions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "source" && lp.GetValue() == "tag" {
					if m.GetCounter().GetValue() != 2 {
						t.Errorf("want counter=2, got %v", m.GetCounter().GetValue())
					}
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("checkversion_resolutions_total{source=\"tag\"} not found in gathered metrics")
	}
}

func Test_Metrics_InfoKeepsLatestOnly(t *testing.T) {
	t.Parallel()
	r, reg := newTestRecorder(t)

	r.ObserveWrite("matool", "1.0.261013", time.Unix(100, 0))
	r.ObserveWrite("matool", "1.0.261014", time.Unix(200, 0))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		switch mf.GetName() {
		case "checkversion_info":
			if n := len(mf.GetMetric()); n != 1 {
				t.Fatalf("want 1 info series, got %d", n)
			}
			for _, lp := range mf.GetMetric()[0].GetLabel() {
				if lp.GetName() == "version" && lp.GetValue() != "1.0.261014" {
					t.Errorf("want latest version label, got %q", lp.GetValue())
				}
			}
		case "checkversion_last_write_timestamp_seconds":
			if v := mf.GetMetric()[0].GetGauge().GetValue(); v != 200 {
				t.Errorf("want timestamp 200, got %v", v)
			}
		}
	}
}

func Test_Metrics_WriteTextfile(t *testing.T) {
	t.Parallel()
	r, reg := newTestRecorder(t)
	r.ObserveResolution("fallback")
	r.ObserveVCSFailure("tag")
	r.ObserveVCSFailure("branch")

	path := filepath.Join(t.TempDir(), "checkversion.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{
		`checkversion_resolutions_total{source="fallback"} 1`,
		`checkversion_vcs_query_failures_total{query="tag"} 1`,
		`checkversion_vcs_query_failures_total{query="branch"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("textfile missing %q:\n%s", want, out)
		}
	}
}

func Test_Metrics_WriteTextfileBadPath(t *testing.T) {
	t.Parallel()
	_, reg := newTestRecorder(t)
	if err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"), reg); err == nil {
		t.Error("want error for missing directory")
	}
}
