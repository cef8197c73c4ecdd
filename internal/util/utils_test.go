package util

import "testing"

func TestErrorLine(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"Error line 3: Expected 'forward' after 'move'", 3},
		{"Error line 12: boom", 12},
		{"Error: no line here", 0},
		{"something else", 0},
	}
	for _, tt := range tests {
		if got := ErrorLine(tt.input); got != tt.want {
			t.Errorf("ErrorLine(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestGetContextLines(t *testing.T) {
	src := "move forward 10\nturn right 90\nmove 10\nsay \"done\"\n"

	got := GetContextLines(src, 3)
	want := "       1 | move forward 10\n" +
		"       2 | turn right 90\n" +
		"  >    3 | move 10\n"
	if got != want {
		t.Errorf("GetContextLines() =\n%q\nwant\n%q", got, want)
	}

	got = GetContextLines(src, 1)
	want = "  >    1 | move forward 10\n"
	if got != want {
		t.Errorf("GetContextLines(line 1) = %q, want %q", got, want)
	}

	if got := GetContextLines(src, 9); got != "" {
		t.Errorf("out of range line should render nothing, got %q", got)
	}
}
