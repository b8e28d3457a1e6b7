package daisysms

import (
	"regexp"
	"strings"
)

// Kind is the normalized classification of a vendor status reply.
type Kind string

const (
	KindCodeReady Kind = "code_ready"
	KindWaiting   Kind = "waiting"
	KindCancelled Kind = "cancelled"
	KindNotFound  Kind = "not_found"
	KindUnparsed  Kind = "unparsed"
)

// Result is the normalized form of one vendor reply. It is ephemeral and
// never persisted; Raw carries the original body for diagnostics.
type Result struct {
	Kind       Kind
	Code       string
	Head       string
	Rest       string
	Raw        string
	Provenance string
}

var sideChannelCode = regexp.MustCompile(`\b\d{4,8}\b`)

// Classify turns a vendor's free-text status reply into a Result. The
// vendor mixes STATUS:data pairs, bare status words, bare numeric codes and
// header-embedded message text, so classification is layered: first match
// wins, and garbage always lands in KindUnparsed rather than an error.
//
// fullText is the optional out-of-band message body (X-Text header) used as
// a last-resort code source.
func Classify(body, fullText string) Result {
	text := strings.TrimSpace(body)

	if head, rest, ok := strings.Cut(text, ":"); ok {
		// ACCESS_NUMBER:id:number is a rental grant, not a status reply;
		// it is parsed by the client. Refusing it here keeps the numeric
		// id from being mistaken for an SMS code.
		if head == "ACCESS_NUMBER" && strings.Contains(rest, ":") {
			return Result{Kind: KindUnparsed, Head: head, Rest: rest, Raw: text}
		}

		// Vendor code replies come as STATUS_OK:123456, OK:123456,
		// READY:123456, ACCESS_ACTIVATION:123456 and friends, sometimes
		// with trailing colon-separated junk. Anything of the shape
		// WORD:<digits>, with the digit run at least 4 long, is a code.
		token, _, _ := strings.Cut(rest, ":")
		token = strings.TrimSpace(token)
		if isDigits(token) && len(token) >= 4 {
			return Result{Kind: KindCodeReady, Code: token, Head: head, Raw: text}
		}

		switch head {
		case "STATUS_WAIT_CODE":
			return Result{Kind: KindWaiting, Head: head, Raw: text}
		case "STATUS_CANCEL":
			return Result{Kind: KindCancelled, Head: head, Raw: text}
		case "NO_ACTIVATION":
			return Result{Kind: KindNotFound, Head: head, Raw: text}
		}
		return Result{Kind: KindUnparsed, Head: head, Rest: rest, Raw: text}
	}

	// Bare numeric body is the vendor's shortcut for a delivered code.
	if isDigits(text) && len(text) >= 4 {
		return Result{Kind: KindCodeReady, Code: text, Raw: text}
	}

	switch text {
	case "STATUS_WAIT_CODE":
		return Result{Kind: KindWaiting, Head: text, Raw: text}
	case "STATUS_CANCEL":
		return Result{Kind: KindCancelled, Head: text, Raw: text}
	case "NO_ACTIVATION":
		return Result{Kind: KindNotFound, Head: text, Raw: text}
	}

	if fullText != "" {
		if code := sideChannelCode.FindString(fullText); code != "" {
			return Result{
				Kind:       KindCodeReady,
				Code:       code,
				Raw:        text,
				Provenance: "x-text header",
			}
		}
	}

	return Result{Kind: KindUnparsed, Head: text, Raw: text}
}

// ExtractCode applies the classifier's digit rule to an arbitrary raw
// reply: the token after the first colon, or the whole string, qualifies
// when it is all digits and at least 4 long. Used as a last resort on
// replies that did not classify.
func ExtractCode(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if _, rest, ok := strings.Cut(s, ":"); ok {
		token, _, _ := strings.Cut(rest, ":")
		token = strings.TrimSpace(token)
		if isDigits(token) && len(token) >= 4 {
			return token, true
		}
		return "", false
	}
	if isDigits(s) && len(s) >= 4 {
		return s, true
	}
	return "", false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
