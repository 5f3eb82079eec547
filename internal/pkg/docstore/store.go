// Package docstore provides JSON documents and NDJSON logs on top of an object store.
//
// Logs have no native append: every append and upsert reads the whole object and
// writes it back. Two concurrent writers to the same key race and one update can be
// lost. Writers to different keys never interfere.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/airenas/speakhw/internal/pkg/apperr"
	"github.com/airenas/speakhw/internal/pkg/storage"
	"github.com/pkg/errors"
)

const (
	contentTypeJSON   = "application/json"
	contentTypeNDJSON = "application/x-ndjson"
)

//ErrNotFound is returned when a document or log record is absent or unreadable
var ErrNotFound = errors.WithMessage(apperr.ErrNotFound, "document")

//Store implements document and log semantics
type Store struct {
	objects storage.ObjectStore
	prefix  string
}

//New creates document store. All keys are resolved under prefix
func New(objects storage.ObjectStore, prefix string) *Store {
	return &Store{objects: objects, prefix: prefix}
}

//Key returns the full storage key for the name
func (s *Store) Key(name string) string {
	return s.prefix + name
}

//Objects returns the underlying object store
func (s *Store) Objects() storage.ObjectStore {
	return s.objects
}

//WriteDocument serializes and overwrites the whole object, last writer wins
func (s *Store) WriteDocument(ctx context.Context, name string, value interface{}) error {
	b, err := marshal(value)
	if err != nil {
		return errors.Wrapf(err, "Can't marshal %s", name)
	}
	return s.objects.Put(ctx, s.Key(name), b, contentTypeJSON)
}

//ReadDocument fails with ErrNotFound if the key is absent or the content is not valid json
func (s *Store) ReadDocument(ctx context.Context, name string, value interface{}) error {
	b, err := s.objects.Get(ctx, s.Key(name))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return errors.Wrap(ErrNotFound, name)
		}
		return errors.Wrapf(err, "Can't read %s", name)
	}
	if err := json.Unmarshal(b, value); err != nil {
		return errors.Wrapf(ErrNotFound, "%s: %v", name, err)
	}
	return nil
}

//ReadText returns raw object content. A missing key is reported as ErrNotFound
func (s *Store) ReadText(ctx context.Context, name string) (string, error) {
	b, err := s.objects.Get(ctx, s.Key(name))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", errors.Wrap(ErrNotFound, name)
		}
		return "", errors.Wrapf(err, "Can't read %s", name)
	}
	return string(b), nil
}

//AppendLine adds one json line to the log. An absent log starts empty.
//An internal read error is returned instead of overwriting the log.
func (s *Store) AppendLine(ctx context.Context, name string, record interface{}) error {
	line, err := marshal(record)
	if err != nil {
		return errors.Wrapf(err, "Can't marshal record for %s", name)
	}
	old, err := s.load(ctx, name)
	if err != nil {
		return err
	}
	buf := bytes.NewBuffer(make([]byte, 0, len(old)+len(line)+2))
	buf.Write(old)
	if len(old) > 0 && old[len(old)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.Write(line)
	buf.WriteByte('\n')
	return s.objects.Put(ctx, s.Key(name), buf.Bytes(), contentTypeNDJSON)
}

//ReadLines returns non empty raw lines, the last limit lines if limit > 0.
//An absent log gives an empty result and no error, so callers on best effort
//paths may ignore the error and still tell "absent" from "failed"
func (s *Store) ReadLines(ctx context.Context, name string, limit int) ([]string, error) {
	b, err := s.load(ctx, name)
	if err != nil {
		return []string{}, err
	}
	res := splitLines(string(b))
	if limit > 0 && len(res) > limit {
		res = res[len(res)-limit:]
	}
	return res, nil
}

//FindFirst decodes the first log record having idField == idValue.
//Lines that are not json objects are skipped
func (s *Store) FindFirst(ctx context.Context, name, idField, idValue string, value interface{}) error {
	lines, err := s.ReadLines(ctx, name, 0)
	if err != nil {
		return err
	}
	for _, l := range lines {
		var rec map[string]interface{}
		if json.Unmarshal([]byte(l), &rec) != nil {
			continue
		}
		if matches(rec, idField, idValue) {
			if err := json.Unmarshal([]byte(l), value); err != nil {
				return errors.Wrapf(err, "Can't decode record %s", idValue)
			}
			return nil
		}
	}
	return errors.Wrapf(ErrNotFound, "%s=%s in %s", idField, idValue, name)
}

//UpdateFunc mutates a log record in place
type UpdateFunc func(rec map[string]interface{})

//Upsert scans the log for the first record with idField == idValue and mutates it
//with update, or appends a new record {idField: idValue} mutated by update.
//The entire log is rewritten. Records other than the matched one keep their bytes.
//A line that is not a json object fails the upsert so the log is never truncated.
func (s *Store) Upsert(ctx context.Context, name, idField, idValue string, update UpdateFunc) error {
	b, err := s.load(ctx, name)
	if err != nil {
		return err
	}
	lines := splitLines(string(b))
	found := false
	for i, l := range lines {
		if found {
			if !json.Valid([]byte(l)) {
				return errors.Errorf("Corrupted line %d in %s", i+1, name)
			}
			continue
		}
		rec, err := decodeRecord(l)
		if err != nil {
			return errors.Wrapf(err, "Corrupted line %d in %s", i+1, name)
		}
		if matches(rec, idField, idValue) {
			update(rec)
			nb, err := marshal(rec)
			if err != nil {
				return errors.Wrapf(err, "Can't marshal record %s", idValue)
			}
			lines[i] = string(nb)
			found = true
		}
	}
	if !found {
		rec := map[string]interface{}{idField: idValue}
		update(rec)
		nb, err := marshal(rec)
		if err != nil {
			return errors.Wrapf(err, "Can't marshal record %s", idValue)
		}
		lines = append(lines, string(nb))
	}
	data := strings.Join(lines, "\n") + "\n"
	return s.objects.Put(ctx, s.Key(name), []byte(data), contentTypeNDJSON)
}

func (s *Store) load(ctx context.Context, name string) ([]byte, error) {
	b, err := s.objects.Get(ctx, s.Key(name))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "Can't read %s", name)
	}
	return b, nil
}

func splitLines(text string) []string {
	res := []string{}
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) != "" {
			res = append(res, l)
		}
	}
	return res
}

func decodeRecord(line string) (map[string]interface{}, error) {
	d := json.NewDecoder(strings.NewReader(line))
	d.UseNumber()
	var rec map[string]interface{}
	if err := d.Decode(&rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.New("not an object")
	}
	return rec, nil
}

func matches(rec map[string]interface{}, idField, idValue string) bool {
	v, ok := rec[idField].(string)
	return ok && v == idValue
}

//marshal encodes without html escaping and without trailing new line
func marshal(v interface{}) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
