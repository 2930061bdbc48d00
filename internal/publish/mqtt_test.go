package publish

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type sent struct {
	topic    string
	retained bool
	payload  string
}

type fakeClient struct {
	mu   sync.Mutex
	msgs []sent
	err  error
	gate chan struct{}
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	if c.gate != nil {
		<-c.gate
	}
	c.mu.Lock()
	c.msgs = append(c.msgs, sent{topic, retained, string(payload.([]byte))})
	c.mu.Unlock()
	return newToken(c.err)
}

func (c *fakeClient) sent() []sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sent(nil), c.msgs...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPublisherSendsRetained(t *testing.T) {
	c := &fakeClient{}
	p := NewPublisher(c, "climate/snapshot")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.Publish([]byte(`{"temperature":72.4}`))
	waitFor(t, func() bool { return len(c.sent()) == 1 })

	got := c.sent()[0]
	if got.topic != "climate/snapshot" || !got.retained || got.payload != `{"temperature":72.4}` {
		t.Fatalf("sent %+v", got)
	}
}

func TestPublishNeverBlocksAndKeepsNewest(t *testing.T) {
	c := &fakeClient{gate: make(chan struct{})}
	p := NewPublisher(c, "t")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.Publish([]byte("1"))
	// Run is now stuck inside the first publish
	waitFor(t, func() bool { return len(p.queue) == 0 })

	done := make(chan struct{})
	go func() {
		for i := 2; i <= 5; i++ {
			p.Publish([]byte{byte('0' + i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked")
	}

	close(c.gate)
	waitFor(t, func() bool { return len(c.sent()) == 2 })
	if got := c.sent()[1].payload; got != "5" {
		t.Fatalf("second payload = %q, want newest", got)
	}
}

func TestPublishErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	c := &fakeClient{err: errors.New("not connected")}
	p := NewPublisher(c, "t")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	p.Publish([]byte("x"))
	waitFor(t, func() bool { return len(c.sent()) == 1 })
	cancel()
	<-done

	if !strings.Contains(buf.String(), "not connected") {
		t.Fatalf("log = %q", buf.String())
	}
}
