package kitten

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"unicode"
)

// Espeak is a G2P backed by the espeak-ng command line tool.
type Espeak struct {
	// Binary is the executable name or path. Default "espeak-ng".
	Binary string
	// Voice is the espeak voice (language). Default "en-us".
	Voice string
}

// DefaultEspeakVoice is the language the bundled models were trained on.
const DefaultEspeakVoice = "en-us"

func (e *Espeak) binary() string {
	if e.Binary == "" {
		return "espeak-ng"
	}
	return e.Binary
}

func (e *Espeak) voice() string {
	if e.Voice == "" {
		return DefaultEspeakVoice
	}
	return e.Voice
}

// Available reports whether the espeak-ng executable can be found.
func (e *Espeak) Available() error {
	_, err := exec.LookPath(e.binary())
	return err
}

// Phonemes converts text with espeak-ng in IPA mode. espeak drops
// punctuation, so text is split at punctuation marks, each word run is
// converted on its own and the marks are put back between the results:
// "hello, world." becomes "həlˈoʊ, wˈɜːld.".
func (e *Espeak) Phonemes(ctx context.Context, text string) (string, error) {
	var b strings.Builder
	for _, seg := range splitPunctuation(text) {
		if seg.punct {
			b.WriteString(seg.text)
			continue
		}
		ph, err := e.run(ctx, seg.text)
		if err != nil {
			return "", err
		}
		if ph == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(ph)
	}
	if b.Len() == 0 {
		return "", errors.New("espeak-ng: empty output")
	}
	return b.String(), nil
}

// run converts one word run. espeak emits one line per clause; the lines
// are joined with single spaces.
func (e *Espeak) run(ctx context.Context, text string) (string, error) {
	cmd := exec.CommandContext(ctx, e.binary(), "-q", "--ipa", "-v", e.voice(), "--stdin")
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("espeak-ng: %w: %s", err, msg)
		}
		return "", fmt.Errorf("espeak-ng: %w", err)
	}
	return strings.Join(strings.Fields(stdout.String()), " "), nil
}

type segment struct {
	text  string
	punct bool
}

// splitPunctuation splits normalized text into word runs and punctuation
// runs. A hyphen joining two word characters stays in its word.
func splitPunctuation(text string) []segment {
	rs := []rune(text)
	var (
		segs  []segment
		start int
	)
	flush := func(end int) {
		if t := strings.TrimSpace(string(rs[start:end])); t != "" {
			segs = append(segs, segment{text: t})
		}
	}
	for i, r := range rs {
		if !isPunctuation(rs, i) {
			continue
		}
		flush(i)
		if n := len(segs); n > 0 && segs[n-1].punct {
			// Adjacent marks ("?!", "...") form one run.
			segs[len(segs)-1].text += string(r)
		} else {
			segs = append(segs, segment{text: string(r), punct: true})
		}
		start = i + 1
	}
	flush(len(rs))
	return segs
}

func isPunctuation(rs []rune, i int) bool {
	switch rs[i] {
	case '!', '?':
		return true
	case '.', ',':
		// Decimal points and digit groups belong to the number.
		inNumber := i > 0 && i < len(rs)-1 && unicode.IsDigit(rs[i-1]) && unicode.IsDigit(rs[i+1])
		return !inNumber
	case '-':
		inWord := i > 0 && i < len(rs)-1 && isWordRune(rs[i-1]) && isWordRune(rs[i+1])
		return !inWord
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '\''
}
