package goMFA

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MrEthical07/goMFA/internal"
	"github.com/redis/go-redis/v9"
)

const tokenRecordVersionV1 = 1

var (
	errRecordNotFound        = errors.New("token record not found")
	errRecordContended       = errors.New("token record contended")
	errRestoreSuperseded     = errors.New("token record superseded")
	errStoreRedisUnavailable = errors.New("token store redis unavailable")
)

// tokenRecord is the persisted per-method state: the code digest, its expiry,
// and the consecutive failure count. The plaintext code is never part of it.
type tokenRecord struct {
	Algo         CodeHashStrategy
	FailureCount uint16
	ExpiresAt    int64
	Salt         [internal.CodeSaltSize]byte
	Digest       [internal.CodeDigestSize]byte
}

// tokenStoreOp is the mutation a WithLock callback decides on; the store
// applies it inside the same transaction that observed the record.
type tokenStoreOp int

const (
	opKeep tokenStoreOp = iota
	opPersist
	opDelete
)

type tokenStore struct {
	redis       *redis.Client
	prefix      string
	retention   time.Duration
	lockRetries int
	clock       Clock
}

func newTokenStore(redisClient *redis.Client, cfg StoreConfig, clock Clock) *tokenStore {
	return &tokenStore{
		redis:       redisClient,
		prefix:      cfg.RedisPrefix,
		retention:   cfg.ExpiredRetention,
		lockRetries: cfg.LockRetries,
		clock:       clock,
	}
}

func (s *tokenStore) key(tenantID, methodID string) string {
	return s.prefix + ":" + normalizeTenantID(tenantID) + ":" + methodID
}

func (s *tokenStore) ttlFor(record *tokenRecord) time.Duration {
	return time.Unix(record.ExpiresAt, 0).Sub(s.clock.Now()) + s.retention
}

// swapReceipt captures what one Swap wrote and what it replaced. Restore needs
// both: the prior value to put back, and the written value to confirm the
// record has not been superseded by a concurrent issue in the meantime.
type swapReceipt struct {
	written []byte
	prev    []byte
	prevTTL time.Duration
}

// Swap atomically overwrites the record for one method and returns a receipt
// holding the prior value and its remaining TTL so a delivery-failure rollback
// can restore it.
//
// Swap may return an error when input validation, dependency calls, or security checks fail.
// Swap does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *tokenStore) Swap(
	ctx context.Context,
	tenantID, methodID string,
	record *tokenRecord,
) (*swapReceipt, error) {
	key := s.key(tenantID, methodID)

	encoded, err := encodeTokenRecord(record)
	if err != nil {
		return nil, err
	}
	ttl := s.ttlFor(record)
	if ttl <= 0 {
		return nil, errors.New("token record already expired at save")
	}

	for i := 0; i < s.lockRetries; i++ {
		receipt := &swapReceipt{written: encoded}

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			switch {
			case err == nil:
				receipt.prev = data
				ttlResult, err := tx.PTTL(ctx, key).Result()
				if err != nil {
					return err
				}
				receipt.prevTTL = ttlResult
			case errors.Is(err, redis.Nil):
				receipt.prev = nil
			default:
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, ttl)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errStoreRedisUnavailable, err)
		}

		return receipt, nil
	}

	return nil, errRecordContended
}

// Restore rolls the key back to the pre-swap value captured in the receipt, or
// deletes the key when there was none. The rollback is conditional: it commits
// only while the receipt's written record is still the live value, so a
// concurrent issue that has already superseded it is never clobbered. Returns
// whether the rollback was applied.
//
// Restore may return an error when input validation, dependency calls, or security checks fail.
// Restore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *tokenStore) Restore(
	ctx context.Context,
	tenantID, methodID string,
	receipt *swapReceipt,
) (bool, error) {
	key := s.key(tenantID, methodID)

	for i := 0; i < s.lockRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}
			if !bytes.Equal(current, receipt.written) {
				return errRestoreSuperseded
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if receipt.prev == nil || receipt.prevTTL <= 0 {
					pipe.Del(ctx, key)
				} else {
					pipe.Set(ctx, key, receipt.prev, receipt.prevTTL)
				}
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if errors.Is(err, redis.Nil) || errors.Is(err, errRestoreSuperseded) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("%w: %v", errStoreRedisUnavailable, err)
		}

		return true, nil
	}

	return false, errRecordContended
}

// WithLock loads the record for one method, hands it to fn, and applies the
// mutation fn decides on, all inside one optimistic transaction scoped to that
// key. The verdict error returned by fn is passed through after the mutation
// commits; a concurrent writer invalidates the transaction and the whole
// load-decide-persist cycle reruns against fresh state.
//
// WithLock may return an error when input validation, dependency calls, or security checks fail.
// WithLock does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *tokenStore) WithLock(
	ctx context.Context,
	tenantID, methodID string,
	fn func(record *tokenRecord) (tokenStoreOp, error),
) error {
	key := s.key(tenantID, methodID)

	for i := 0; i < s.lockRetries; i++ {
		var verdict error

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeTokenRecord(data)
			if err != nil {
				return err
			}

			op, v := fn(record)
			verdict = v

			switch op {
			case opDelete:
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				return err

			case opPersist:
				updated, err := encodeTokenRecord(record)
				if err != nil {
					return err
				}

				ttl := s.ttlFor(record)
				if ttl <= 0 {
					_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Del(ctx, key)
						return nil
					})
					return err
				}

				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, ttl)
					return nil
				})
				return err

			default:
				return nil
			}
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return errRecordNotFound
			}
			return fmt.Errorf("%w: %v", errStoreRedisUnavailable, err)
		}

		return verdict
	}

	return errRecordContended
}

// Peek loads the record without taking the lock. Used by introspection only;
// every mutating path goes through Swap or WithLock.
//
// Peek may return an error when input validation, dependency calls, or security checks fail.
// Peek does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *tokenStore) Peek(ctx context.Context, tenantID, methodID string) (*tokenRecord, error) {
	data, err := s.redis.Get(ctx, s.key(tenantID, methodID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errRecordNotFound
		}
		return nil, fmt.Errorf("%w: %v", errStoreRedisUnavailable, err)
	}

	return decodeTokenRecord(data)
}

func encodeTokenRecord(record *tokenRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(tokenRecordVersionV1)
	buf.WriteByte(byte(record.Algo))

	if err := binary.Write(&buf, binary.BigEndian, record.FailureCount); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	buf.Write(record.Salt[:])
	buf.Write(record.Digest[:])

	return buf.Bytes(), nil
}

func decodeTokenRecord(data []byte) (*tokenRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != tokenRecordVersionV1 {
		return nil, errors.New("invalid token record version")
	}

	algo, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	record := &tokenRecord{
		Algo: CodeHashStrategy(algo),
	}

	if err := binary.Read(reader, binary.BigEndian, &record.FailureCount); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	if _, err := io.ReadFull(reader, record.Salt[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, record.Digest[:]); err != nil {
		return nil, err
	}

	return record, nil
}
