package topic

import "testing"

func TestBuilderTopics(t *testing.T) {
	b := NewBuilder("plughub/laundry")

	if got, want := b.Report(), "plughub/laundry/report"; got != want {
		t.Errorf("Report() = %q, want %q", got, want)
	}
	if got, want := b.Command(), "plughub/laundry/command"; got != want {
		t.Errorf("Command() = %q, want %q", got, want)
	}
}

func TestBuilderKeepsTopicsApart(t *testing.T) {
	b := NewBuilder("plughub/laundry")

	// The hub subscribes to the report topic and publishes on the command
	// topic; if they ever collapse into one the hub would consume its own
	// commands as device frames.
	if b.Report() == b.Command() {
		t.Fatalf("report and command topics must differ, both are %q", b.Report())
	}
}
