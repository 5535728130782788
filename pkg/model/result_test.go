package model

import (
	"testing"
	"time"
)

func checkInvariants(t *testing.T, r CommandResult) {
	t.Helper()
	if r.Success != (r.ErrorMessage == "") {
		t.Errorf("Success = %v but ErrorMessage = %q", r.Success, r.ErrorMessage)
	}
	if r.LineCount != len(r.OutputLines) {
		t.Errorf("LineCount = %d, len(OutputLines) = %d", r.LineCount, len(r.OutputLines))
	}
}

func TestNewSuccess(t *testing.T) {
	r := NewSuccess("10.0.0.1", "ntp", []string{"ntp server 10.0.0.1", "ntp source Loopback0"})
	checkInvariants(t, r)
	if !r.Success || r.LineCount != 2 {
		t.Errorf("NewSuccess = %+v", r)
	}

	empty := NewSuccess("10.0.0.1", "snmp", nil)
	checkInvariants(t, empty)
	if empty.OutputLines == nil {
		t.Error("OutputLines should be an empty slice, not nil")
	}
}

func TestNewFailure(t *testing.T) {
	r := NewFailure("10.0.0.1", "ntp", "authentication failed")
	checkInvariants(t, r)
	if r.Success || r.LineCount != 0 || len(r.OutputLines) != 0 {
		t.Errorf("NewFailure = %+v", r)
	}

	blank := NewFailure("10.0.0.1", "ntp", "")
	checkInvariants(t, blank)
	if blank.Success {
		t.Error("failure with empty message must not read as success")
	}
}

func TestFailAll(t *testing.T) {
	results := FailAll("10.0.0.2", []string{"ntp", "snmp", "aaa"}, "timed out")
	if len(results) != 3 {
		t.Fatalf("len = %d, want 3", len(results))
	}
	for i, p := range []string{"ntp", "snmp", "aaa"} {
		if results[i].Parameter != p || results[i].ErrorMessage != "timed out" {
			t.Errorf("results[%d] = %+v", i, results[i])
		}
		checkInvariants(t, results[i])
	}
	if got := FailAll("x", nil, "err"); len(got) != 0 {
		t.Errorf("FailAll(nil) = %v, want empty", got)
	}
}

func TestReport_Summary(t *testing.T) {
	r := &Report{
		Started: time.Now(),
		Results: []CommandResult{
			NewSuccess("a", "ntp", []string{"l1", "l2"}),
			NewFailure("b", "ntp", "timed out"),
			NewSuccess("a", "snmp", []string{"l3"}),
			NewSuccess("c", "aaa", nil),
		},
	}
	s := r.Summary()
	want := Summary{Total: 4, Succeeded: 3, Failed: 1, TotalLines: 3}
	if s != want {
		t.Errorf("Summary() = %+v, want %+v", s, want)
	}
	if len(r.Successes()) != 3 || len(r.Failures()) != 1 {
		t.Errorf("Successes/Failures = %d/%d, want 3/1", len(r.Successes()), len(r.Failures()))
	}
	if r.Successes()[1].Parameter != "snmp" {
		t.Errorf("Successes() not in report order: %+v", r.Successes())
	}
}

func TestReport_SummaryEmpty(t *testing.T) {
	r := &Report{}
	if s := r.Summary(); s != (Summary{}) {
		t.Errorf("empty Summary() = %+v, want zero", s)
	}
}
