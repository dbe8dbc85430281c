//go:build windows

package toast

import (
	"strings"
	"testing"
)

func TestShowScriptContainsTitleAndMessage(t *testing.T) {
	s := showScript("Update ready", "Restart to apply")
	if !strings.Contains(s, "Update ready") || !strings.Contains(s, "Restart to apply") {
		t.Errorf("script should contain title and message:\n%s", s)
	}
}

func TestShowScriptEscapesQuotes(t *testing.T) {
	s := showScript("it's ready", "done")
	// XML escaping turns ' into &apos; before PowerShell quoting applies.
	if !strings.Contains(s, "it&apos;s ready") {
		t.Errorf("script should escape title quotes:\n%s", s)
	}
}

func TestEscapeXML(t *testing.T) {
	got := escapeXML(`<a href="x">&</a>`)
	want := "&lt;a href=&quot;x&quot;&gt;&amp;&lt;/a&gt;"
	if got != want {
		t.Errorf("escapeXML = %q, want %q", got, want)
	}
}
