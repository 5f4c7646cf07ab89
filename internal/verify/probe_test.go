package verify

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"
)

// fakeExchanger speaks for the remote end of a net.Pipe. Each command is
// answered by prefix match; an empty response closes the session instead,
// and an unmatched command goes unanswered so the client runs into its
// deadline.
func fakeExchanger(server net.Conn, banner string, responses map[string]string) {
	defer server.Close()

	fmt.Fprintf(server, "%s\r\n", banner)

	buf := make([]byte, 4096)
	for {
		n, err := server.Read(buf)
		if err != nil {
			return
		}
		cmd := string(buf[:n])

		if strings.HasPrefix(cmd, "QUIT") {
			fmt.Fprintf(server, "221 Bye\r\n")
			return
		}
		for prefix, resp := range responses {
			if strings.HasPrefix(cmd, prefix) {
				if resp == "" {
					return
				}
				fmt.Fprintf(server, "%s\r\n", resp)
				break
			}
		}
	}
}

// pipeProber returns a prober whose dials land on a fakeExchanger.
func pipeProber(banner string, responses map[string]string) *Prober {
	return &Prober{
		Dial: func(_ string, _ time.Duration) (net.Conn, error) {
			client, server := net.Pipe()
			go fakeExchanger(server, banner, responses)
			return client, nil
		},
	}
}

func genericTestDialect(timeout time.Duration) *Dialect {
	return GenericDialect("probe.test", timeout)
}

func providerTestDialect(codes ...int) *Dialect {
	success := make(map[int]bool, len(codes))
	for _, c := range codes {
		success[c] = true
	}
	return &Dialect{
		Name:         "provider",
		HeloIdentity: "provider.test",
		Timeout:      5 * time.Second,
		SuccessCodes: success,
	}
}

func TestProbeGenericAcceptedRcpt(t *testing.T) {
	p := pipeProber("220 mx.test ESMTP", map[string]string{
		"HELO":      "250 mx.test",
		"MAIL FROM": "250 Sender ok",
		"RCPT TO":   "250 Recipient ok",
	})
	if !p.Probe("mx.test", "user@corp.test", genericTestDialect(5*time.Second)) {
		t.Error("expected accepted RCPT to verify")
	}
}

func TestProbeGenericRejectedRcpt(t *testing.T) {
	p := pipeProber("220 mx.test ESMTP", map[string]string{
		"HELO":      "250 mx.test",
		"MAIL FROM": "250 Sender ok",
		"RCPT TO":   "550 No such user here",
	})
	if p.Probe("mx.test", "ghost@corp.test", genericTestDialect(5*time.Second)) {
		t.Error("expected hard RCPT refusal to fail")
	}
}

func TestProbeGenericMultilineGreeting(t *testing.T) {
	p := pipeProber("220-mx.test greets you\r\n220 ready", map[string]string{
		"HELO":      "250 mx.test",
		"MAIL FROM": "250 ok",
		"RCPT TO":   "250 ok",
	})
	if !p.Probe("mx.test", "user@corp.test", genericTestDialect(5*time.Second)) {
		t.Error("expected multi-line greeting to be consumed")
	}
}

func TestProbeGenericGreetingRejection(t *testing.T) {
	p := pipeProber("554 No SMTP service here", nil)
	if p.Probe("mx.test", "user@corp.test", genericTestDialect(5*time.Second)) {
		t.Error("expected 554 greeting to fail the probe")
	}
}

func TestProbeGenericHardFailureAtHelo(t *testing.T) {
	p := pipeProber("220 mx.test ESMTP", map[string]string{
		"HELO": "550 Denied",
	})
	if p.Probe("mx.test", "user@corp.test", genericTestDialect(5*time.Second)) {
		t.Error("expected 550 at HELO to abort the probe")
	}
}

func TestProbeTempfailRcptSplit(t *testing.T) {
	responses := map[string]string{
		"HELO":      "250 mx.test",
		"MAIL FROM": "250 ok",
		"RCPT TO":   "450 Mailbox busy, try later",
	}

	t.Run("generic credits greylisting", func(t *testing.T) {
		p := pipeProber("220 mx.test ESMTP", responses)
		if !p.Probe("mx.test", "user@corp.test", genericTestDialect(5*time.Second)) {
			t.Error("expected 450 at RCPT to be credited in lenient mode")
		}
	})

	t.Run("provider treats 450 as refusal", func(t *testing.T) {
		p := pipeProber("220 mx.test ESMTP", responses)
		if p.Probe("mx.test", "user@provider.test", providerTestDialect(250, 251)) {
			t.Error("expected 450 at RCPT to fail a provider probe")
		}
	})
}

func TestProbeGenericTimeout(t *testing.T) {
	t.Run("valid after two commands", func(t *testing.T) {
		// Exchanger answers until RCPT, then never responds.
		p := pipeProber("220 mx.test ESMTP", map[string]string{
			"HELO":      "250 mx.test",
			"MAIL FROM": "250 ok",
		})
		if !p.Probe("mx.test", "user@corp.test", genericTestDialect(500*time.Millisecond)) {
			t.Error("expected timeout after full engagement to be credited")
		}
	})

	t.Run("invalid after one command", func(t *testing.T) {
		// Exchanger greets and then never responds.
		p := pipeProber("220 mx.test ESMTP", nil)
		if p.Probe("mx.test", "user@corp.test", genericTestDialect(500*time.Millisecond)) {
			t.Error("expected timeout after one command to fail")
		}
	})
}

func TestProbeGenericRemoteClose(t *testing.T) {
	t.Run("valid after engagement", func(t *testing.T) {
		// Exchanger hangs up on RCPT without answering it.
		p := pipeProber("220 mx.test ESMTP", map[string]string{
			"HELO":      "250 mx.test",
			"MAIL FROM": "250 ok",
			"RCPT TO":   "",
		})
		if !p.Probe("mx.test", "user@corp.test", genericTestDialect(5*time.Second)) {
			t.Error("expected close after engagement to be credited")
		}
	})

	t.Run("invalid before engagement", func(t *testing.T) {
		// Exchanger hangs up as soon as HELO arrives.
		p := pipeProber("220 mx.test ESMTP", map[string]string{
			"HELO": "",
		})
		if p.Probe("mx.test", "user@corp.test", genericTestDialect(5*time.Second)) {
			t.Error("expected close after one command to fail")
		}
	})
}

func TestProbeProviderLatchesSuccessCode(t *testing.T) {
	// 220 is in the dialect's success set, so the greeting alone latches
	// validity and the close resolves to it.
	p := pipeProber("220 mx.provider.test", map[string]string{
		"HELO":      "250 ok",
		"MAIL FROM": "",
	})
	if !p.Probe("mx.provider.test", "user@provider.test", providerTestDialect(250, 220)) {
		t.Error("expected latched success code to survive the close")
	}
}

func TestProbeProviderHardRefusalOverridesLatch(t *testing.T) {
	p := pipeProber("220 mx.provider.test", map[string]string{
		"HELO":      "250 ok",
		"MAIL FROM": "250 ok",
		"RCPT TO":   "550 5.1.1 User unknown",
	})
	if p.Probe("mx.provider.test", "ghost@provider.test", providerTestDialect(250, 251)) {
		t.Error("expected hard refusal to override the latched flag")
	}
}

func TestProbeProviderTimeoutResolvesToObservedFlag(t *testing.T) {
	t.Run("flag set", func(t *testing.T) {
		d := providerTestDialect(250)
		d.Timeout = 500 * time.Millisecond
		p := pipeProber("220 mx.provider.test", map[string]string{
			"HELO": "250 ok",
		})
		if !p.Probe("mx.provider.test", "user@provider.test", d) {
			t.Error("expected timeout to resolve to the observed flag")
		}
	})

	t.Run("flag unset", func(t *testing.T) {
		d := providerTestDialect(250)
		d.Timeout = 500 * time.Millisecond
		p := pipeProber("220 mx.provider.test", nil)
		if p.Probe("mx.provider.test", "user@provider.test", d) {
			t.Error("expected timeout with no success code seen to fail")
		}
	})
}

func TestProbeDialFailure(t *testing.T) {
	p := &Prober{
		Dial: func(_ string, _ time.Duration) (net.Conn, error) {
			return nil, errors.New("connection refused")
		},
	}
	if p.Probe("mx.test", "user@corp.test", genericTestDialect(time.Second)) {
		t.Error("expected dial failure to fail the probe")
	}
	if p.Probe("mx.test", "user@provider.test", providerTestDialect(250)) {
		t.Error("expected dial failure to fail a provider probe")
	}
}
