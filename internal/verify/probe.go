package verify

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/mailprobe/internal/pkg/logger"
)

const smtpPort = "25"

// probeStep names the stations of the callout dialogue. A session moves
// through them strictly forward and never revisits one.
type probeStep int

const (
	stepHelo probeStep = iota
	stepMailFrom
	stepRcpt
	stepQuit
)

// outcome is what consuming the responses for one step decided.
type outcome int

const (
	outcomeAdvance outcome = iota // step satisfied, send the next command
	outcomeDone                   // verdict settled, stop the dialogue
)

// Prober drives the SMTP callout against a single mail exchanger. Dial is
// a field so tests can hand the session an in-process pipe instead of a
// TCP socket.
type Prober struct {
	Dial func(addr string, timeout time.Duration) (net.Conn, error)
}

// NewProber returns a prober that dials exchangers over TCP.
func NewProber() *Prober {
	return &Prober{
		Dial: func(addr string, timeout time.Duration) (net.Conn, error) {
			return net.DialTimeout("tcp", addr, timeout)
		},
	}
}

// Probe connects to host on port 25 and walks HELO, MAIL FROM, RCPT TO and
// QUIT for the candidate address, reading responses under the dialect's
// rules. The boolean is the session's verdict; a probe never errors, it
// only concludes. One connection per call, never pooled.
func (p *Prober) Probe(host, email string, dialect *Dialect) bool {
	conn, err := p.Dial(net.JoinHostPort(host, smtpPort), dialect.Timeout)
	if err != nil {
		logger.Debug("probe dial failed", "host", host, "error", err)
		return false
	}

	s := &session{
		conn:    conn,
		br:      bufio.NewReader(conn),
		dialect: dialect,
	}
	defer s.close()

	conn.SetDeadline(time.Now().Add(dialect.Timeout))
	verdict := s.run(email)
	logger.Debug("probe finished", "host", host, "email", email, "valid", verdict)
	return verdict
}

// session is the state machine for one exchanger attempt: the pending
// step, how many commands went out, whether the mailbox was acknowledged
// and whether RCPT was answered conclusively. Created per connection,
// never reused.
type session struct {
	conn     net.Conn
	br       *bufio.Reader
	dialect  *Dialect
	step     probeStep
	sent     int
	valid    bool
	rcptSeen bool
}

func (s *session) run(email string) bool {
	commands := map[probeStep]string{
		stepHelo:     "HELO " + s.dialect.HeloIdentity,
		stepMailFrom: "MAIL FROM:<verify@" + s.dialect.HeloIdentity + ">",
		stepRcpt:     "RCPT TO:<" + email + ">",
	}

	// The exchanger speaks first; its greeting gates HELO and is judged
	// by the same rules as any non-RCPT response.
	out, verdict := s.consume()
	if out == outcomeDone {
		return verdict
	}

	for s.step <= stepRcpt {
		if err := s.send(commands[s.step]); err != nil {
			return s.resolve(err)
		}
		out, verdict := s.consume()
		if out == outcomeDone {
			return verdict
		}
		s.step++
	}
	return s.valid
}

// send writes one command line. The sent counter only moves after a full
// write; a command that died on the wire was never sent.
func (s *session) send(cmd string) error {
	if _, err := s.conn.Write([]byte(cmd + "\r\n")); err != nil {
		return err
	}
	s.sent++
	return nil
}

// consume reads responses for the pending step until one advances the
// dialogue or settles the verdict. Interim codes that do neither leave
// the session waiting on the wire.
func (s *session) consume() (outcome, bool) {
	for {
		code, err := s.readResponse()
		if err != nil {
			return outcomeDone, s.resolve(err)
		}

		// Provider dialects latch validity from any registered code at
		// any step, not just the RCPT answer.
		if !s.dialect.LenientFallback && s.dialect.SuccessCodes[code] {
			s.valid = true
		}

		if s.step == stepRcpt {
			done, verdict := s.concludeRcpt(code)
			if done {
				return outcomeDone, verdict
			}
			continue
		}

		switch {
		case code >= 500:
			return outcomeDone, false
		case code == 450 && !s.dialect.LenientFallback:
			return outcomeDone, false
		case code/100 == 2 || code == 451 || code == 452:
			return outcomeAdvance, false
		}
	}
}

// concludeRcpt interprets a response to RCPT TO. The lenient path credits
// transient refusals (450-452) as acknowledgements because callout-averse
// exchangers hide real mailboxes behind them; hard refusals stay hard.
func (s *session) concludeRcpt(code int) (done, verdict bool) {
	if s.dialect.LenientFallback {
		switch {
		case s.dialect.SuccessCodes[code] || code == 450 || code == 451 || code == 452:
			s.valid = true
			s.rcptSeen = true
			return true, true
		case code >= 500:
			s.valid = false
			s.rcptSeen = true
			return true, false
		default:
			return false, false
		}
	}

	// Provider exchangers answer RCPT with their registered codes; for
	// them 450 is a refusal, not greylisting.
	switch {
	case code >= 500 || code == 450:
		return true, false
	case code/100 == 2 || code == 451 || code == 452:
		return true, s.valid
	default:
		return false, false
	}
}

// resolve turns a dead wire into a verdict. Provider sessions keep
// whatever the dialogue established. Lenient sessions credit the address
// when the exchanger went quiet after engaging: a timeout after two
// commands, any socket fault after one, or a close once RCPT was
// acknowledged or two commands went unanswered.
func (s *session) resolve(err error) bool {
	if !s.dialect.LenientFallback {
		return s.valid
	}

	var nerr net.Error
	switch {
	case errors.As(err, &nerr) && nerr.Timeout():
		return s.sent >= 2
	case errors.Is(err, io.EOF):
		return (s.rcptSeen && s.valid) || (!s.rcptSeen && s.sent > 1)
	default:
		return s.sent >= 1
	}
}

// readResponse returns the code of the next complete response, skipping
// continuation lines (fourth byte '-') and anything unparseable.
func (s *session) readResponse() (int, error) {
	for {
		line, err := s.br.ReadString('\n')
		if err != nil {
			return 0, err
		}
		line = strings.TrimRight(line, "\r\n")
		if len(line) < 3 {
			continue
		}
		code, err := strconv.Atoi(line[:3])
		if err != nil {
			continue
		}
		if len(line) > 3 && line[3] == '-' {
			continue
		}
		return code, nil
	}
}

// close says goodbye and releases the socket. The verdict is settled by
// the time we hang up, so write errors are swallowed.
func (s *session) close() {
	s.step = stepQuit
	s.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	s.conn.Write([]byte("QUIT\r\n"))
	s.conn.Close()
}
