// Package canonical produces the normalized text of a document and the receipt UUID derived from it.
//
// The text is built from the emitted JSON in field order: every key is upper-cased and quoted,
// scalars are quoted verbatim, and each array element is preceded by its key written twice.
// Null members are left out.
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/etabridge/internal/eta/domain"
)

var ErrMalformedDocument = errors.New("malformed_document")

// Serialize returns the canonical text of doc. Excluded entries are dotted JSON paths
// such as "header.uuid"; array indexes are not part of a path.
func Serialize(doc any, exclude ...string) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	w := &walker{dec: dec, exclude: make(map[string]struct{}, len(exclude))}
	for _, path := range exclude {
		w.exclude[path] = struct{}{}
	}

	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := w.value(tok, ""); err != nil {
		return "", err
	}
	return w.out.String(), nil
}

// UUID hashes canonical text into the 64 character lowercase hex identifier.
func UUID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ReceiptUUID computes the receipt identifier over everything but the uuid itself.
// referenceUUID only takes part for return receipts.
func ReceiptUUID(r *domain.Receipt) (string, error) {
	exclude := []string{"header.uuid"}
	if !r.IsReturn() {
		exclude = append(exclude, "header.referenceUUID")
	}
	text, err := Serialize(r, exclude...)
	if err != nil {
		return "", err
	}
	return UUID(text), nil
}

// Stamp computes and stores the receipt UUID.
func Stamp(r *domain.Receipt) error {
	id, err := ReceiptUUID(r)
	if err != nil {
		return err
	}
	r.Header.UUID = id
	return nil
}

type walker struct {
	dec     *json.Decoder
	exclude map[string]struct{}
	out     strings.Builder
}

func (w *walker) value(tok json.Token, path string) error {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return w.object(path)
		case '[':
			return w.array(path, "")
		default:
			return fmt.Errorf("%w: unexpected %q", ErrMalformedDocument, t)
		}
	case string:
		w.quote(t)
	case json.Number:
		w.quote(t.String())
	case bool:
		if t {
			w.quote("true")
		} else {
			w.quote("false")
		}
	case nil:
		w.quote("")
	}
	return nil
}

func (w *walker) object(path string) error {
	for w.dec.More() {
		keyTok, err := w.dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("%w: non string key", ErrMalformedDocument)
		}
		child := key
		if path != "" {
			child = path + "." + key
		}

		tok, err := w.dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		if _, skip := w.exclude[child]; skip {
			if err := w.skip(tok); err != nil {
				return err
			}
			continue
		}
		if tok == nil {
			continue
		}

		name := strings.ToUpper(key)
		if d, ok := tok.(json.Delim); ok && d == '[' {
			if err := w.array(child, name); err != nil {
				return err
			}
			continue
		}
		w.quote(name)
		if err := w.value(tok, child); err != nil {
			return err
		}
	}
	return w.closing('}')
}

// array writes the elements of an array whose opening bracket was already consumed.
func (w *walker) array(path, name string) error {
	for w.dec.More() {
		tok, err := w.dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		if name != "" {
			w.quote(name)
			w.quote(name)
		}
		if err := w.value(tok, path); err != nil {
			return err
		}
	}
	return w.closing(']')
}

func (w *walker) skip(tok json.Token) error {
	d, ok := tok.(json.Delim)
	if !ok {
		return nil
	}
	if d != '{' && d != '[' {
		return fmt.Errorf("%w: unexpected %q", ErrMalformedDocument, d)
	}
	depth := 1
	for depth > 0 {
		next, err := w.dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		if nd, ok := next.(json.Delim); ok {
			switch nd {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

func (w *walker) closing(want json.Delim) error {
	tok, err := w.dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q", ErrMalformedDocument, want)
	}
	return nil
}

func (w *walker) quote(s string) {
	w.out.WriteByte('"')
	w.out.WriteString(s)
	w.out.WriteByte('"')
}
