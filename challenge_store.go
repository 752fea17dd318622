package authcore

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	challengeKeyPrefix      = "acch"
	challengeRecordVersion1 = 1
)

var (
	errChallengeNotFound          = errors.New("challenge record not found")
	errChallengeCodeMismatch      = errors.New("challenge code mismatch")
	errChallengeRecordExpired     = errors.New("challenge record expired")
	errChallengeAttemptsExceeded  = errors.New("challenge attempts exceeded")
	errChallengeRedisUnavailable  = errors.New("challenge redis unavailable")
	errChallengeRecordMalformed   = errors.New("challenge record malformed")
	errChallengePurposeMismatched = errors.New("challenge purpose mismatch")
)

// challengeRecord is the stored form of one outstanding challenge. Only the
// SHA-256 of the code is kept.
type challengeRecord struct {
	UserID    int64
	CodeHash  [32]byte
	ExpiresAt int64
	Attempts  uint16
	Purpose   ChallengePurpose
}

// challengeStore holds at most one outstanding challenge per (user, purpose)
// in Redis. The Redis key TTL is twice the logical validity window so that a
// verification attempt inside the grace period reports expiry — distinct
// from not-found — without clearing the record.
type challengeStore struct {
	redis  *redis.Client
	prefix string
}

func newChallengeStore(redisClient *redis.Client) *challengeStore {
	return &challengeStore{
		redis:  redisClient,
		prefix: challengeKeyPrefix,
	}
}

func (s *challengeStore) key(purpose ChallengePurpose, userID int64) string {
	return s.prefix + ":" + string(purpose) + ":" + strconv.FormatInt(userID, 10)
}

// Save overwrites any outstanding challenge for (user, purpose) with record.
// ttl is the logical validity window.
func (s *challengeStore) Save(
	ctx context.Context,
	record *challengeRecord,
	ttl time.Duration,
) error {
	encoded, err := encodeChallengeRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(record.Purpose, record.UserID), encoded, 2*ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errChallengeRedisUnavailable, err)
	}

	return nil
}

// Consume atomically verifies providedHash against the outstanding challenge
// for (userID, purpose) and deletes it on success. A wrong code increments
// the attempt counter in place; reaching maxAttempts consumes the record. An
// expired record is reported but deliberately NOT cleared — expired codes
// require re-issue, not retry. Two concurrent calls cannot both succeed: the
// compare-then-delete runs under WATCH and retries on interleaving writes.
func (s *challengeStore) Consume(
	ctx context.Context,
	purpose ChallengePurpose,
	userID int64,
	providedHash [32]byte,
	maxAttempts int,
) (*challengeRecord, error) {
	const maxRetries = 4
	key := s.key(purpose, userID)

	for i := 0; i < maxRetries; i++ {
		var matched *challengeRecord

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeChallengeRecord(data)
			if err != nil {
				return err
			}
			if record.Purpose != purpose {
				return errChallengePurposeMismatched
			}

			if time.Now().Unix() > record.ExpiresAt {
				return errChallengeRecordExpired
			}

			if subtle.ConstantTimeCompare(record.CodeHash[:], providedHash[:]) != 1 {
				record.Attempts++
				if int(record.Attempts) >= maxAttempts {
					_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Del(ctx, key)
						return nil
					})
					if err != nil {
						return err
					}
					return errChallengeAttemptsExceeded
				}

				updated, err := encodeChallengeRecord(record)
				if err != nil {
					return err
				}
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, redis.KeepTTL)
					return nil
				})
				if err != nil {
					return err
				}
				return errChallengeCodeMismatch
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}

			matched = record
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				return nil, errChallengeNotFound
			case errors.Is(err, errChallengeNotFound),
				errors.Is(err, errChallengeCodeMismatch),
				errors.Is(err, errChallengeRecordExpired),
				errors.Is(err, errChallengeAttemptsExceeded),
				errors.Is(err, errChallengePurposeMismatched),
				errors.Is(err, errChallengeRecordMalformed):
				return nil, err
			default:
				return nil, fmt.Errorf("%w: %v", errChallengeRedisUnavailable, err)
			}
		}

		return matched, nil
	}

	return nil, errChallengeNotFound
}

func encodeChallengeRecord(record *challengeRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(challengeRecordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.UserID); err != nil {
		return nil, err
	}

	purpose := string(record.Purpose)
	if len(purpose) > 255 {
		return nil, errors.New("challenge purpose too long")
	}
	buf.WriteByte(byte(len(purpose)))
	buf.WriteString(purpose)
	buf.Write(record.CodeHash[:])

	return buf.Bytes(), nil
}

func decodeChallengeRecord(data []byte) (*challengeRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, errChallengeRecordMalformed
	}
	if version != challengeRecordVersion1 {
		return nil, errChallengeRecordMalformed
	}

	record := &challengeRecord{}

	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, errChallengeRecordMalformed
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, errChallengeRecordMalformed
	}
	if err := binary.Read(reader, binary.BigEndian, &record.UserID); err != nil {
		return nil, errChallengeRecordMalformed
	}

	purposeLen, err := reader.ReadByte()
	if err != nil {
		return nil, errChallengeRecordMalformed
	}
	purpose := make([]byte, purposeLen)
	if _, err := io.ReadFull(reader, purpose); err != nil {
		return nil, errChallengeRecordMalformed
	}
	record.Purpose = ChallengePurpose(purpose)

	if _, err := io.ReadFull(reader, record.CodeHash[:]); err != nil {
		return nil, errChallengeRecordMalformed
	}

	return record, nil
}
