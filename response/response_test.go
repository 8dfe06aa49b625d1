package response

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		line string
		want Response
	}{
		{"ok\n", Response{Kind: PlainOk}},
		{"ok 2\n", Response{Kind: SequencedOk, Sequence: 2}},
		{"ok N2\n", Response{Kind: SequencedOk, Sequence: 2}},
		{"OK n42\n", Response{Kind: SequencedOk, Sequence: 42}},
		{"Resend: 5\n", Response{Kind: Resend, Sequence: 5}},
		{"resend:5\n", Response{Kind: Resend, Sequence: 5}},
		{"rs 7\n", Response{Kind: Resend, Sequence: 7}},
		{"RS 7\n", Response{Kind: Resend, Sequence: 7}},
		{"T:210 /210\n", Response{Kind: Other}},
		{"", Response{Kind: Other}},
		{"okay\n", Response{Kind: Other}},
		{"ok N\n", Response{Kind: Other}},
		{"Resend: abc\n", Response{Kind: Other}},
	}

	for _, c := range cases {
		t.Run(c.line, func(t *testing.T) {
			if got := Classify([]byte(c.line)); got != c.want {
				t.Errorf("Classify(%q) = %+v, want %+v", c.line, got, c.want)
			}
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	line := []byte("ok N9\n")
	first := Classify(line)
	second := Classify(line)
	if first != second {
		t.Errorf("Classify is not deterministic: %+v != %+v", first, second)
	}
}

func TestKindString(t *testing.T) {
	for _, k := range []Kind{PlainOk, SequencedOk, Resend, Other} {
		if k.String() == "" {
			t.Errorf("Kind(%d).String() is empty", k)
		}
	}
}
