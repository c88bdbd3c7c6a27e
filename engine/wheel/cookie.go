package wheel

import (
	"crypto/rand"
	"strings"

	"github.com/pkg/errors"
)

const cookieLength = 32

const cookieAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// cookie separates a child build process's real output from whatever
// noise a build backend writes to stdout, by wrapping the JSON payload in
// a pair of random, reversed sentinels. Grounded on
// ipi/utils/CLICookie.py: start/end are generated once, and wrap emits
// them reversed so the parent can find even-partially-garbled output by
// scanning for the (also reversed) needle.
type cookie struct {
	start, end string
}

func newCookie() (cookie, error) {
	start, err := genCookie()
	if err != nil {
		return cookie{}, err
	}
	end, err := genCookie()
	if err != nil {
		return cookie{}, err
	}
	return cookie{start: start, end: end}, nil
}

func genCookie() (string, error) {
	buf := make([]byte, cookieLength)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "generating cookie")
	}
	out := make([]byte, cookieLength)
	for i, b := range buf {
		out[i] = cookieAlphabet[int(b)%len(cookieAlphabet)]
	}
	return string(out), nil
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func (c cookie) wrap(data string) string {
	return reverse(c.start) + data + reverse(c.end)
}

// unwrap finds data between the reversed sentinels, tolerating arbitrary
// noise before/after (returned as pre/post so a caller can forward it;
// Builder.Build keeps only the content and does not forward pre/post).
func (c cookie) unwrap(data string) (content, pre, post string) {
	revStart, revEnd := reverse(c.start), reverse(c.end)
	if i := strings.Index(data, revStart); i > -1 {
		pre = data[:i]
		data = data[i+cookieLength:]
	}
	if i := strings.Index(data, revEnd); i > -1 {
		post = data[i+cookieLength:]
		data = data[:i]
	}
	return data, pre, post
}
