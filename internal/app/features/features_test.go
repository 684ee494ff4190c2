package features

import (
	"errors"
	"fmt"
	"testing"
)

func TestFlagRollout(t *testing.T) {
	full := Flag{Name: "ensemble_methods", Enabled: true, Rollout: 1, Methods: []string{"adaptive_ensemble"}}
	if !full.EnabledFor("") || !full.EnabledFor("user-1") {
		t.Fatal("fully rolled out flag must be on for everyone")
	}
	off := Flag{Name: "off", Enabled: false, Rollout: 1}
	if off.EnabledFor("user-1") {
		t.Fatal("disabled flag must be off")
	}
	partial := Flag{Name: "partial", Enabled: true, Rollout: 0.5}
	if partial.EnabledFor("") {
		t.Fatal("anonymous subjects only see full rollouts")
	}
	on := 0
	for i := 0; i < 2000; i++ {
		subject := fmt.Sprintf("user-%d", i)
		first := partial.EnabledFor(subject)
		if partial.EnabledFor(subject) != first {
			t.Fatalf("flag decision for %s is not sticky", subject)
		}
		if first {
			on++
		}
	}
	if on < 800 || on > 1200 {
		t.Fatalf("rollout 0.5 enabled %d/2000 subjects", on)
	}
}

func TestFlagsAllows(t *testing.T) {
	flags := NewFlags(Flag{Name: "katch_beta", Enabled: false, Methods: []string{"katch_mcardle"}})
	if err := flags.Allows("mifflin_st_jeor", "u1"); err != nil {
		t.Fatalf("unguarded method rejected: %v", err)
	}
	err := flags.Allows("katch_mcardle", "u1")
	if !errors.Is(err, ErrMethodDisabled) {
		t.Fatalf("err = %v, want ErrMethodDisabled", err)
	}
	var dErr *DisabledError
	if !errors.As(err, &dErr) || dErr.Flag != "katch_beta" {
		t.Fatalf("unexpected error: %#v", err)
	}
	var nilFlags *Flags
	if err := nilFlags.Allows("katch_mcardle", "u1"); err != nil {
		t.Fatalf("nil flags must allow everything: %v", err)
	}
}

func TestExperimentAssignment(t *testing.T) {
	exp := Experiment{
		Name:    "ensemble_vs_mifflin",
		Enabled: true,
		Variants: []Variant{
			{Method: "mifflin_st_jeor", Weight: 1},
			{Method: "adaptive_ensemble", Weight: 1},
		},
	}
	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		subject := fmt.Sprintf("subject-%d", i)
		v, ok := exp.Assign(subject)
		if !ok {
			t.Fatalf("subject %s not assigned", subject)
		}
		again, _ := exp.Assign(subject)
		if again.Method != v.Method {
			t.Fatalf("assignment for %s is not stable", subject)
		}
		counts[v.Method]++
	}
	if counts["mifflin_st_jeor"] < 800 || counts["adaptive_ensemble"] < 800 {
		t.Fatalf("unbalanced split: %v", counts)
	}
	if _, ok := exp.Assign(""); ok {
		t.Fatal("anonymous subjects are never assigned")
	}
	exp.Enabled = false
	if _, ok := exp.Assign("subject-1"); ok {
		t.Fatal("disabled experiment assigned a variant")
	}
}

func TestExperimentsFirstEnabledWins(t *testing.T) {
	set := NewExperiments(
		Experiment{Name: "disabled", Enabled: false, Variants: []Variant{{Method: "harris_benedict", Weight: 1}}},
		Experiment{Name: "live", Enabled: true, Variants: []Variant{{Method: "katch_mcardle", Weight: 1}, {Method: "ignored", Weight: 0}}},
	)
	a, ok := set.Assign("subject-7")
	if !ok || a.Experiment != "live" || a.Method != "katch_mcardle" {
		t.Fatalf("assignment = %+v, %v", a, ok)
	}
}
