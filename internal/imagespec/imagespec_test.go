package imagespec

import "testing"

const fixtureDoc = `metadata:
  output: game.iso
map_rules:
  bin/*: /{1}
  assets/**: /assets/{1}
  sound/excluded.c: /c/excluded
  "!sound/excluded.*": exclude
`

func TestParseOrderAndFields(t *testing.T) {
	spec, err := Parse([]byte(fixtureDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.Output != "game.iso" {
		t.Fatalf("Output = %q, want \"game.iso\"", spec.Output)
	}
	if len(spec.MapRules) != 4 {
		t.Fatalf("got %d map rules, want 4", len(spec.MapRules))
	}
	want := []MapRule{
		{Glob: "bin/*", Template: "/{1}"},
		{Glob: "assets/**", Template: "/assets/{1}"},
		{Glob: "sound/excluded.c", Template: "/c/excluded"},
		{Glob: "sound/excluded.*", Exclude: true},
	}
	for i, w := range want {
		got := spec.MapRules[i]
		if got != w {
			t.Fatalf("rule %d: got %+v, want %+v", i, got, w)
		}
	}
}

func TestParseEmptyDocument(t *testing.T) {
	spec, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.Output != "" || len(spec.MapRules) != 0 {
		t.Fatalf("expected zero-value spec, got %+v", spec)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	spec := &Spec{
		Output: "out.iso",
		MapRules: []MapRule{
			{Glob: "a/*", Template: "/{1}"},
			{Glob: "b/*", Exclude: true},
		},
	}
	data, err := Serialize(spec)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Serialize(spec)): %v", err)
	}
	if got.Output != spec.Output {
		t.Fatalf("Output round-trip: got %q, want %q", got.Output, spec.Output)
	}
	if len(got.MapRules) != len(spec.MapRules) {
		t.Fatalf("got %d rules, want %d", len(got.MapRules), len(spec.MapRules))
	}
	for i := range spec.MapRules {
		if got.MapRules[i] != spec.MapRules[i] {
			t.Fatalf("rule %d round-trip mismatch: got %+v, want %+v", i, got.MapRules[i], spec.MapRules[i])
		}
	}
}

func TestToRulesFromRulesRoundTrip(t *testing.T) {
	spec := &Spec{
		Output: "x.iso",
		MapRules: []MapRule{
			{Glob: "bin/*", Template: "/{1}"},
			{Glob: "sound/excluded.*", Exclude: true},
		},
	}
	rules := ToRules(spec)
	back := FromRules(spec.Output, rules)
	if back.Output != spec.Output {
		t.Fatalf("Output mismatch: got %q, want %q", back.Output, spec.Output)
	}
	for i := range spec.MapRules {
		if back.MapRules[i] != spec.MapRules[i] {
			t.Fatalf("rule %d mismatch: got %+v, want %+v", i, back.MapRules[i], spec.MapRules[i])
		}
	}
}

func TestResolveBaseDirPriority(t *testing.T) {
	got, err := ResolveBaseDir("/cli/source", "/spec/dir/game.yaml")
	if err != nil {
		t.Fatalf("ResolveBaseDir: %v", err)
	}
	if got != "/cli/source" {
		t.Fatalf("CLI source should win, got %q", got)
	}

	got, err = ResolveBaseDir("", "/spec/dir/game.yaml")
	if err != nil {
		t.Fatalf("ResolveBaseDir: %v", err)
	}
	if got != "/spec/dir" {
		t.Fatalf("spec file dir should win absent a CLI source, got %q", got)
	}

	got, err = ResolveBaseDir("", "")
	if err != nil {
		t.Fatalf("ResolveBaseDir: %v", err)
	}
	if got == "" {
		t.Fatal("expected a non-empty cwd fallback")
	}
}
