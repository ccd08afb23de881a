package navsync

import "testing"

func TestParseIdentifiers(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Identifiers
	}{
		{"both present", "/app/checklist?subject=sub-1&session=sess-1",
			Identifiers{SubjectID: "sub-1", SessionID: "sess-1"}},
		{"session only", "/app/entry?session=sess-1",
			Identifiers{SessionID: "sess-1"}},
		{"subject only", "/app/entry?subject=sub-1",
			Identifiers{SubjectID: "sub-1"}},
		{"no parameters", "/app/entry", Identifiers{}},
		{"unrelated parameters", "/app/entry?theme=dark", Identifiers{}},
		{"full url", "https://host.example/app?subject=s&session=x",
			Identifiers{SubjectID: "s", SessionID: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseIdentifiers(tc.raw)
			if err != nil {
				t.Fatalf("ParseIdentifiers failed: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestWithIdentifiers(t *testing.T) {
	// Setting identifiers preserves the path and unrelated parameters.
	next, err := WithIdentifiers("/app/checklist?theme=dark", Identifiers{
		SubjectID: "sub-1", SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("WithIdentifiers failed: %v", err)
	}
	got, err := ParseIdentifiers(next)
	if err != nil {
		t.Fatalf("ParseIdentifiers failed: %v", err)
	}
	if got.SubjectID != "sub-1" || got.SessionID != "sess-1" {
		t.Errorf("identifiers not applied: %+v", got)
	}
	if routeOf(next) != "checklist" {
		t.Errorf("path lost: %q", next)
	}

	// Empty fields remove the corresponding parameter.
	cleared, err := WithIdentifiers(next, Identifiers{SubjectID: "sub-1"})
	if err != nil {
		t.Fatalf("WithIdentifiers failed: %v", err)
	}
	got, _ = ParseIdentifiers(cleared)
	if got.SessionID != "" {
		t.Errorf("session parameter not removed: %q", cleared)
	}
	if got.SubjectID != "sub-1" {
		t.Errorf("subject parameter lost: %q", cleared)
	}
}

func TestMemoryAddress(t *testing.T) {
	addr := NewMemoryAddress("/app/entry")
	if addr.Current() != "/app/entry" {
		t.Errorf("Current = %q", addr.Current())
	}
	addr.Navigate("/app/checklist?session=s1")
	if addr.Current() != "/app/checklist?session=s1" {
		t.Errorf("Navigate not applied: %q", addr.Current())
	}
	if err := addr.Replace("/app/checklist?session=s2"); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if addr.Current() != "/app/checklist?session=s2" {
		t.Errorf("Replace not applied: %q", addr.Current())
	}
}

func TestRouteOf(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"/app/checklist?session=s1", "checklist"},
		{"/app/exit-questions", "exit-questions"},
		{"/app/checklist/", "checklist"},
		{"/", "entry"},
		{"", "entry"},
		{"https://host.example/app/report?session=s1", "report"},
	}
	for _, tc := range cases {
		if got := routeOf(tc.raw); got != tc.want {
			t.Errorf("routeOf(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
