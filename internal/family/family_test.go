package family

import "testing"

func TestResolve(t *testing.T) {
	cases := []struct {
		name  string
		label string
		path  string
		want  string
	}{
		{"explicit label wins", "mixtral", "/models/merlinite-7b.gguf", "mixtral"},
		{"label case folded", "Merlinite", "/models/x.gguf", "merlinite"},
		{"inferred from filename", "", "/models/merlinite-7b-q4.gguf", "merlinite"},
		{"inferred mixtral", "", "/models/Mixtral-8x7B.safetensors", "mixtral"},
		{"no match", "", "/models/tinyllama.gguf", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.label, tc.path); got != tc.want {
				t.Fatalf("Resolve(%q, %q) = %q, want %q", tc.label, tc.path, got, tc.want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	tmpl, ok := Lookup("merlinite")
	if !ok {
		t.Fatalf("expected merlinite template")
	}
	if tmpl.EOSToken != "<|endoftext|>" || tmpl.BOSToken != "" {
		t.Fatalf("unexpected merlinite tokens: %+v", tmpl)
	}

	tmpl, ok = Lookup("MIXTRAL")
	if !ok {
		t.Fatalf("lookup must be case-insensitive")
	}
	if tmpl.EOSToken != "</s>" || tmpl.BOSToken != "<s>" {
		t.Fatalf("unexpected mixtral tokens: %+v", tmpl)
	}

	if _, ok := Lookup("granite"); ok {
		t.Fatalf("unknown family must not resolve")
	}
}
