package raw

import (
	"testing"
)

func TestConfGet(t *testing.T) {
	t.Setenv("ARCHIVE_DIR", "  /srv/ocr ")
	t.Setenv("LOG_FILE", " ocr_processing.log ")

	root := New()
	logc := root.Prefix("LOG_")

	tests := []struct {
		name string
		conf Conf
		key  string
		def  string
		want string
	}{
		{name: "root trimmed", conf: root, key: "ARCHIVE_DIR", def: ".archive", want: "/srv/ocr"},
		{name: "prefixed hit", conf: logc, key: "FILE", def: "", want: "ocr_processing.log"},
		{name: "missing returns default", conf: logc, key: "FORMAT", def: "console", want: "console"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.conf.Get(tt.key, tt.def); got != tt.want {
				t.Fatalf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestConfGetBool(t *testing.T) {
	logc := New().Prefix("LOG_")
	for k, v := range map[string]string{
		"LOG_A": "true", "LOG_B": "1", "LOG_C": "YES", "LOG_D": "  yes ",
		"LOG_E": "false", "LOG_F": "0", "LOG_G": "off",
	} {
		t.Setenv(k, v)
	}

	tests := []struct {
		key  string
		def  bool
		want bool
	}{
		{"A", false, true},
		{"B", false, true},
		{"C", false, true},
		{"D", false, true},
		{"E", true, false},
		{"F", true, false},
		{"G", true, false},
		{"UNSET", true, true},
		{"UNSET", false, false},
	}
	for _, tt := range tests {
		if got := logc.GetBool(tt.key, tt.def); got != tt.want {
			t.Fatalf("GetBool(%q, %v) = %v, want %v", tt.key, tt.def, got, tt.want)
		}
	}
}

func TestConfGetInt(t *testing.T) {
	logc := New().Prefix("LOG_")
	t.Setenv("LOG_SAMPLE_EVERY", " 25 ")
	t.Setenv("LOG_NEG", "-3")
	t.Setenv("LOG_WORD", "ten")

	tests := []struct {
		key  string
		def  int
		want int
	}{
		{"SAMPLE_EVERY", 0, 25},
		{"NEG", 7, 7},
		{"WORD", 7, 7},
		{"UNSET", 9, 9},
	}
	for _, tt := range tests {
		if got := logc.GetInt(tt.key, tt.def); got != tt.want {
			t.Fatalf("GetInt(%q) = %d, want %d", tt.key, got, tt.want)
		}
	}
}
