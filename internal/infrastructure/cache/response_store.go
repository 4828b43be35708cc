package cache

import (
	"context"
	"errors"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrInProgress is returned while another request holds the key
	ErrInProgress = errors.New("idempotent request in progress")
	// ErrKeyReused is returned when a key is presented with a different request body
	ErrKeyReused = errors.New("idempotency key reused with a different request")
)

// defaultLockTTL bounds how long a pending key blocks retries when its
// request never completes
const defaultLockTTL = 30 * time.Second

// StoredResponse is a completed response kept for replay
type StoredResponse struct {
	Status      int    `msgpack:"s"`
	ContentType string `msgpack:"ct"`
	Body        []byte `msgpack:"b"`
}

// ResponseStore keeps the first response of each idempotent request.
//
// Reserve claims key for a request body fingerprint. It returns (nil, nil)
// when the caller now owns the key, the stored response when the same request
// already completed, ErrInProgress while it is still running and
// ErrKeyReused when the fingerprint differs.
type ResponseStore interface {
	Reserve(ctx context.Context, key, fingerprint string) (*StoredResponse, error)
	Complete(ctx context.Context, key, fingerprint string, resp StoredResponse) error
	Release(ctx context.Context, key string) error
	Close() error
}

type entryState uint8

const (
	statePending entryState = iota + 1
	stateDone
)

// record is the stored form of one key
type record struct {
	State       entryState      `msgpack:"st"`
	Fingerprint string          `msgpack:"fp"`
	Response    *StoredResponse `msgpack:"r,omitempty"`
}

func (r record) resolve(fingerprint string) (*StoredResponse, error) {
	if r.Fingerprint != fingerprint {
		return nil, ErrKeyReused
	}
	if r.State != stateDone || r.Response == nil {
		return nil, ErrInProgress
	}
	return r.Response, nil
}

func encodeRecord(r record) ([]byte, error) {
	return msgpack.Marshal(&r)
}

func decodeRecord(data []byte) (record, error) {
	var r record
	err := msgpack.Unmarshal(data, &r)
	return r, err
}
