package broadcast

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridengine/pkg/grid"
)

type recordingPublisher struct {
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev Event) error {
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func TestListenerPublishesEachCommit(t *testing.T) {
	pub := &recordingPublisher{}
	e := grid.New(6, 6)
	e.AddListener(Listener(context.Background(), pub, "home", nil))

	if _, err := e.AddItem("a", 0, 0, 2, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddItem("b", 0, 0, 2, 2); err != nil {
		t.Fatal(err)
	}

	if len(pub.events) != 2 {
		t.Fatalf("published %d events, want 2", len(pub.events))
	}
	ev := pub.events[1]
	if ev.Layout != "home" {
		t.Errorf("Layout = %q, want home", ev.Layout)
	}
	if len(ev.Changes) != 2 || ev.Changes[0].Kind != grid.ChangeMove {
		t.Errorf("Changes = %v, want move then add", ev.Changes)
	}
	if ev.Time.IsZero() {
		t.Error("event should be stamped")
	}
}

func TestListenerSwallowsErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	pub := &recordingPublisher{err: errors.New("down")}

	e := grid.New(2, 2)
	e.AddListener(Listener(context.Background(), pub, "home", logger))
	if _, err := e.AddItem("a", 0, 0, 1, 1); err != nil {
		t.Fatalf("AddItem should not see publish errors: %v", err)
	}
	if !strings.Contains(buf.String(), "publish failed") {
		t.Errorf("log = %q, want publish failure", buf.String())
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(log.New(&buf))

	cs := grid.ChangeSet{Changes: []grid.Change{grid.AddChange(grid.NewNode("a", 0, 0, 1, 1))}}
	if err := p.Publish(context.Background(), NewEvent("home", cs)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"layout changed", "home", "add a@(0,0) 1x1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}

func TestRedisPublisherChannel(t *testing.T) {
	p := NewRedisPublisher(nil, "")
	if got := p.Channel("home"); got != "gridengine:home" {
		t.Errorf("Channel = %q", got)
	}
	if got := NewRedisPublisher(nil, "team").Channel("*"); got != "team:*" {
		t.Errorf("Channel = %q", got)
	}
}
