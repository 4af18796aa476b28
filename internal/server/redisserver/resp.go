package redisserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Protocol limits. Every supported command is a handful of short
// arguments, so the limits are tight.
const (
	MaxArrayLen  = 16
	MaxBulkLen   = 4 * 1024
	MaxInlineLen = 4 * 1024
	maxHeaderLen = 32
)

var (
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

// ReadCommand reads one command, either a RESP array of bulk strings or an
// inline command line. An empty command yields nil args.
func ReadCommand(r *bufio.Reader) ([][]byte, error) {
	b, err := r.Peek(1)
	if err != nil {
		return nil, err
	}
	if b[0] == '*' {
		return readArray(r)
	}

	line, err := readLine(r, MaxInlineLen)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	if len(fields) > MaxArrayLen {
		return nil, fmt.Errorf("%w: %d inline arguments exceed limit %d", ErrLimitExceeded, len(fields), MaxArrayLen)
	}
	args := make([][]byte, len(fields))
	for i, f := range fields {
		args[i] = []byte(f)
	}
	return args, nil
}

func readArray(r *bufio.Reader) ([][]byte, error) {
	n, err := readLength(r, '*')
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	if n > MaxArrayLen {
		return nil, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, MaxArrayLen)
	}

	args := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		arg, err := readBulk(r)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func readBulk(r *bufio.Reader) ([]byte, error) {
	n, err := readLength(r, '$')
	if err != nil {
		return nil, err
	}
	if n == -1 {
		return nil, nil
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: invalid bulk length", ErrProtocol)
	}
	if n > MaxBulkLen {
		return nil, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, MaxBulkLen)
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
	}
	return buf[:n], nil
}

// readLength reads a "<prefix><int>\r\n" header.
func readLength(r *bufio.Reader, prefix byte) (int, error) {
	line, err := readLine(r, maxHeaderLen)
	if err != nil {
		return 0, err
	}
	if len(line) < 2 || line[0] != prefix {
		return 0, fmt.Errorf("%w: expected '%c', got %q", ErrProtocol, prefix, line)
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid length %q", ErrProtocol, line[1:])
	}
	return n, nil
}

func readLine(r *bufio.Reader, maxLen int) (string, error) {
	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		buf = append(buf, frag...)
		if len(buf) > maxLen+2 {
			return "", fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
		}
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return "", err
	}

	if !bytes.HasSuffix(buf, []byte("\r\n")) {
		return "", fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}
	return string(buf[:len(buf)-2]), nil
}

// replyWriter encodes RESP2 replies. Write errors are sticky and surface
// from Flush.
type replyWriter struct {
	w   *bufio.Writer
	err error
}

func newReplyWriter(w io.Writer) *replyWriter {
	return &replyWriter{w: bufio.NewWriter(w)}
}

func (rw *replyWriter) write(parts ...string) {
	for _, p := range parts {
		if rw.err != nil {
			return
		}
		_, rw.err = rw.w.WriteString(p)
	}
}

// SimpleString writes "+s".
func (rw *replyWriter) SimpleString(s string) {
	rw.write("+", s, "\r\n")
}

// Error writes "-msg". CR and LF in msg are replaced so the reply stays on
// one line.
func (rw *replyWriter) Error(msg string) {
	msg = strings.NewReplacer("\r", " ", "\n", " ").Replace(msg)
	rw.write("-", msg, "\r\n")
}

// Integer writes ":n".
func (rw *replyWriter) Integer(n int64) {
	rw.write(":", strconv.FormatInt(n, 10), "\r\n")
}

// Bulk writes a bulk string.
func (rw *replyWriter) Bulk(s string) {
	rw.write("$", strconv.Itoa(len(s)), "\r\n", s, "\r\n")
}

// NullBulk writes the RESP2 nil reply.
func (rw *replyWriter) NullBulk() {
	rw.write("$-1\r\n")
}

// Array writes an array of bulk strings.
func (rw *replyWriter) Array(items []string) {
	rw.write("*", strconv.Itoa(len(items)), "\r\n")
	for _, s := range items {
		rw.Bulk(s)
	}
}

// Flush sends buffered replies.
func (rw *replyWriter) Flush() error {
	if rw.err != nil {
		return rw.err
	}
	return rw.w.Flush()
}

func normalizeCommandName(b []byte) string {
	if bytes.ContainsAny(b, "abcdefghijklmnopqrstuvwxyz") {
		return strings.ToUpper(string(b))
	}
	return string(b)
}
