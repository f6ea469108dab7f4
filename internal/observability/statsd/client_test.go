package statsd

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" gate/decision ": "gate_decision",
		"session..verify": "session.verify",
		".login.":         "login",
		"a:b|c":           "a_b_c",
	}
	for input, want := range tests {
		assert.Equal(t, want, normalizeName(input), "input %q", input)
	}
}

func TestFormatLine(t *testing.T) {
	t.Parallel()

	global := map[string]string{"env": "production", " service ": " yoohoo "}
	local := map[string]string{"result": " allowed ", "": "ignored", "env": "staging"}

	got := formatLine("yoohoo.gate.decision", "1", "c", global, local)
	assert.Equal(t, "yoohoo.gate.decision:1|c|#env:staging,result:allowed,service:yoohoo", got)

	assert.Equal(t, "x:2|ms", formatLine("x", "2", "ms", nil, nil))
	assert.Empty(t, formatLine("", "1", "c", nil, nil))
}

func TestDisabledClientDropsMetrics(t *testing.T) {
	t.Parallel()

	c, err := NewClient(context.Background(), Config{Enabled: false, Address: "127.0.0.1:8125"})
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	c.Count("login", 1, nil)
	require.NoError(t, c.Close())

	var nilClient *Client
	nilClient.Count("login", 1, nil)
	assert.False(t, nilClient.Enabled())
}

func TestClientSendsOverUDP(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })

	c, err := NewClient(context.Background(), Config{
		Enabled:    true,
		Address:    pc.LocalAddr().String(),
		Prefix:     ".yoohoo.",
		GlobalTags: map[string]string{"env": "test"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.True(t, c.Enabled())

	c.Timing("webhook.duration", 1500*time.Microsecond, map[string]string{"type": "charge.succeeded"})

	buf := make([]byte, 512)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "yoohoo.webhook.duration:1.5|ms|#env:test,type:charge.succeeded", string(buf[:n]))
}

func TestRecorderNamed(t *testing.T) {
	t.Parallel()

	var r Recorder
	tags := map[string]string{"result": "ok"}
	r.Count("a", 1, tags)
	r.Count("b", 2, nil)
	r.Count("a", 3, nil)
	tags["result"] = "mutated"

	got := r.Named("a")
	require.Len(t, got, 2)
	assert.Equal(t, "ok", got[0].Tags["result"])
	assert.EqualValues(t, 3, got[1].Value)
}
