package action

import "testing"

func TestKinds_AllValidAndRoundTripByName(t *testing.T) {
	for _, k := range Kinds() {
		if !k.Valid() {
			t.Fatalf("kind %d should be valid", k)
		}
		if got := ParseKind(k.String()); got != k {
			t.Fatalf("ParseKind(%q) = %v, want %v", k.String(), got, k)
		}
	}
	if KindUnknown.Valid() {
		t.Fatal("unknown kind must not be valid")
	}
	if ParseKind("teleport") != KindUnknown {
		t.Fatal("unexpected kind for unknown name")
	}
}

func TestFailed_DefaultsEmptyMessage(t *testing.T) {
	res := Failed(KindReadFile, "  ")
	if res.Success || res.Error != "UNKNOWN_ERROR" {
		t.Fatalf("unexpected result: %#v", res)
	}
}

func TestResult_Text(t *testing.T) {
	if got := Succeeded(KindRunCommand, "ok").Text(); got != "ok" {
		t.Fatalf("unexpected success text: %q", got)
	}
	res := Result{Kind: KindRunCommand, Error: "command exited with status 2", Output: "STDERR:\nboom"}
	if got := res.Text(); got != "error: command exited with status 2\nSTDERR:\nboom" {
		t.Fatalf("unexpected failure text: %q", got)
	}
}
