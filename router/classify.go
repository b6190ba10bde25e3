package router

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/modelmesh/model"
)

// ErrorKind is the closed classification of a provider failure.
type ErrorKind int

const (
	// ErrorKindTransient covers timeouts, transport hiccups and empty
	// responses; retried with backoff on the same model.
	ErrorKindTransient ErrorKind = iota
	// ErrorKindQuota covers provider-reported usage/rate exhaustion; the
	// model is blacklisted and never retried within the window.
	ErrorKindQuota
	// ErrorKindAuth covers credential failures; escalated like transient
	// faults but logged as non-auto-recoverable misconfiguration.
	ErrorKindAuth
	// ErrorKindProtocol covers malformed exchanges; escalated like
	// transient faults but logged as misconfiguration.
	ErrorKindProtocol
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindQuota:
		return "quota"
	case ErrorKindAuth:
		return "auth"
	case ErrorKindProtocol:
		return "protocol"
	default:
		return "transient"
	}
}

//go:embed classification.yaml
var defaultTableYAML []byte

// tableFile is the on-disk shape of the classification table.
type tableFile struct {
	Version int                 `yaml:"version"`
	Kinds   map[string][]string `yaml:"kinds"`
}

// ClassificationTable maps raw provider error text to an ErrorKind using
// keyword groups treated as versioned configuration data. The table is safe
// for concurrent reads and can be replaced atomically (see Watch).
type ClassificationTable struct {
	mu      sync.RWMutex
	version int
	quota   []string
	auth    []string
	proto   []string
}

// DefaultClassificationTable returns the table built from the embedded
// keyword data.
func DefaultClassificationTable() *ClassificationTable {
	t := &ClassificationTable{}
	if err := t.load(defaultTableYAML); err != nil {
		// The embedded table is part of the build; failing to parse it is
		// a programming error.
		panic(fmt.Sprintf("router: embedded classification table invalid: %v", err))
	}
	return t
}

// LoadClassificationTable reads a table from a YAML file, allowing
// deployments to version the keyword data independently of the binary.
func LoadClassificationTable(path string) (*ClassificationTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classification table: %w", err)
	}
	t := &ClassificationTable{}
	if err := t.load(data); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *ClassificationTable) load(data []byte) error {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse classification table: %w", err)
	}
	if len(file.Kinds) == 0 {
		return errors.New("classification table has no kinds")
	}
	lower := func(keywords []string) []string {
		out := make([]string, 0, len(keywords))
		for _, k := range keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				out = append(out, k)
			}
		}
		return out
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.version = file.Version
	t.quota = lower(file.Kinds["quota"])
	t.auth = lower(file.Kinds["auth"])
	t.proto = lower(file.Kinds["protocol"])
	return nil
}

// Version returns the version stamp of the active table.
func (t *ClassificationTable) Version() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// Classify maps an error to its kind. Typed sentinel errors from the model
// package win over text matching; untyped errors are classified by their
// lower-cased text. Unrecognized errors default to transient, the only kind
// that is safe to retry.
func (t *ClassificationTable) Classify(err error) ErrorKind {
	if err == nil {
		return ErrorKindTransient
	}

	switch {
	case model.IsQuota(err):
		return ErrorKindQuota
	case model.IsAuth(err):
		return ErrorKindAuth
	case model.IsProtocol(err):
		return ErrorKindProtocol
	case errors.Is(err, model.ErrTransient), errors.Is(err, model.ErrEmptyResponse):
		return ErrorKindTransient
	case errors.Is(err, context.DeadlineExceeded):
		// A timeout is transient unless the partial error text says quota.
		if t.matches(strings.ToLower(err.Error()), kindQuotaOnly) == ErrorKindQuota {
			return ErrorKindQuota
		}
		return ErrorKindTransient
	}

	return t.matches(strings.ToLower(err.Error()), kindAll)
}

type matchScope int

const (
	kindAll matchScope = iota
	kindQuotaOnly
)

func (t *ClassificationTable) matches(text string, scope matchScope) ErrorKind {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, kw := range t.quota {
		if strings.Contains(text, kw) {
			return ErrorKindQuota
		}
	}
	if scope == kindQuotaOnly {
		return ErrorKindTransient
	}
	for _, kw := range t.auth {
		if strings.Contains(text, kw) {
			return ErrorKindAuth
		}
	}
	for _, kw := range t.proto {
		if strings.Contains(text, kw) {
			return ErrorKindProtocol
		}
	}
	return ErrorKindTransient
}
