package prompt

import "testing"

func TestFormatTemplate(t *testing.T) {
	output, err := FormatTemplate("Hello {name} {{test}}", map[string]string{"name": "Alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "Hello Alice {test}" {
		t.Fatalf("unexpected output: %s", output)
	}
}

func TestFormatTemplateMissingKey(t *testing.T) {
	if _, err := FormatTemplate("Hello {name}", map[string]string{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFormatLenientMissingKey(t *testing.T) {
	output, err := FormatLenient("Hello {name}!", map[string]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "Hello !" {
		t.Fatalf("unexpected output: %s", output)
	}
}

func TestFormatTemplateInvalidSyntax(t *testing.T) {
	if _, err := FormatTemplate("Hello {name", map[string]string{"name": "A"}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := FormatLenient("Hello name}", nil); err == nil {
		t.Fatalf("expected error for stray brace")
	}
}

func TestValidateSystemStatic(t *testing.T) {
	if err := ValidateSystemStatic("sys", "Hello {name}"); err == nil {
		t.Fatalf("expected error")
	}
	if err := ValidateSystemStatic("sys", "Hello {{name}}!"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
