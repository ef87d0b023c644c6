package output

import (
	"bytes"
	"context"
	"os"
	"testing"
)

func TestWithPrinter_FromContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		ctx := WithPrinter(context.Background(), &buf)
		p := FromContext(ctx)
		if p == nil {
			t.Fatal("FromContext returned nil")
		}
		if p.Writer() != &buf {
			t.Error("Writer() should return the buffer passed to WithPrinter")
		}
	})

	t.Run("default to stdout when not set", func(t *testing.T) {
		t.Parallel()
		p := FromContext(context.Background())
		if p == nil {
			t.Fatal("FromContext returned nil on empty context")
		}
		if p.Writer() != os.Stdout {
			t.Error("Writer() should default to os.Stdout")
		}
	})
}

func TestPrinter_Write(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		write func(p *Printer)
		want  string
	}{
		{"Print", func(p *Printer) { p.Print("org.a", " ", "1.0.0") }, "org.a 1.0.0"},
		{"Printf", func(p *Printer) { p.Printf("%d bundles", 42) }, "42 bundles"},
		{"Println", func(p *Printer) { p.Println("org.a"); p.Println("org.b") }, "org.a\norg.b\n"},
		{"Writer", func(p *Printer) { _, _ = p.Writer().Write([]byte("direct")) }, "direct"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			tt.write(FromContext(WithPrinter(context.Background(), &buf)))
			if got := buf.String(); got != tt.want {
				t.Errorf("wrote %q, want %q", got, tt.want)
			}
		})
	}
}

type record struct {
	Name    string   `json:"name" yaml:"name"`
	Bundles []string `json:"bundles,omitempty" yaml:"bundles,omitempty"`
}

func TestPrinter_Encode(t *testing.T) {
	t.Parallel()

	v := record{Name: "rcp", Bundles: []string{"a_1.0.0", "b"}}
	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, "{\n  \"name\": \"rcp\",\n  \"bundles\": [\n    \"a_1.0.0\",\n    \"b\"\n  ]\n}\n"},
		{FormatYAML, "name: rcp\nbundles:\n  - a_1.0.0\n  - b\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			if err := New(&buf).Encode(tt.format, v); err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("Encode() wrote %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrinter_EncodeText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(&buf).Encode(FormatText, record{}); err == nil {
		t.Error("Encode(FormatText) should fail")
	}
}
