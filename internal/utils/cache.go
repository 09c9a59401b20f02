package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Skipped fills
	"strconv"       // Version counters
	"time"          // Time durations

	"github.com/google/uuid"        // Account ids in cache keys
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Cached balances
	"github.com/sirupsen/logrus"    // Logging cache failures
)

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb redis.Cmdable, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb redis.Cmdable, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL, queued when rdb is a pipeline
}

// pendingTTL bounds how long a write mark outlives a process that died
// between BeginWrite and EndWrite
const pendingTTL = time.Minute

// errFillSkipped aborts a fill whose version went stale
var errFillSkipped = errors.New("balance changed since version was read")

// beginWriteScript drops the cached balance, bumps the version and raises
// the pending count of each account. KEYS come in balance/version/pending
// triples; ARGV[1] is the pending TTL in milliseconds.
var beginWriteScript = redis.NewScript(`
for i = 1, #KEYS, 3 do
  redis.call('DEL', KEYS[i])
  redis.call('INCR', KEYS[i + 1])
  redis.call('INCR', KEYS[i + 2])
  redis.call('PEXPIRE', KEYS[i + 2], ARGV[1])
end
return #KEYS / 3
`)

// endWriteScript is beginWriteScript's counterpart: it drops the cached
// balance again, bumps the version and lowers the pending count.
var endWriteScript = redis.NewScript(`
for i = 1, #KEYS, 3 do
  redis.call('DEL', KEYS[i])
  redis.call('INCR', KEYS[i + 1])
  if redis.call('DECR', KEYS[i + 2]) <= 0 then
    redis.call('DEL', KEYS[i + 2])
  end
end
return #KEYS / 3
`)

// BalanceCache caches account balances in Redis. Cache errors are logged
// and treated as misses; the database stays the source of truth.
//
// Each account has a version counter and a pending count next to its
// balance. Fills are checked against both under WATCH, so a balance read
// before a transfer committed is never stored after it.
type BalanceCache struct {
	rdb *redis.Client // Redis client
	ttl time.Duration // Entry lifetime
	log *logrus.Entry // Logger for cache failures
}

// NewBalanceCache returns a BalanceCache with the given TTL.
func NewBalanceCache(rdb *redis.Client, ttl time.Duration, log *logrus.Entry) *BalanceCache {
	return &BalanceCache{rdb: rdb, ttl: ttl, log: log}
}

// balanceKey is the cache key for an account balance
func balanceKey(id uuid.UUID) string {
	return "balance:account:" + id.String()
}

// versionKey counts writes started or finished on an account
func versionKey(id uuid.UUID) string {
	return "balance:version:" + id.String()
}

// pendingKey counts writes in flight on an account
func pendingKey(id uuid.UUID) string {
	return "balance:pending:" + id.String()
}

// counter reads an integer reply; missing keys count as zero
func counter(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, nil // Key does not exist
	}
	return strconv.ParseInt(s, 10, 64)
}

// GetBalance returns the cached balance, if any
func (c *BalanceCache) GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, bool) {
	var bal decimal.Decimal // Decimal unmarshals from its JSON string form
	found, err := GetCache(ctx, c.rdb, balanceKey(id), &bal)
	if err != nil {
		c.log.WithFields(logrus.Fields{"account_id": id, "error": err.Error()}).Warn("Balance cache read failed")
		return decimal.Decimal{}, false
	}
	return bal, found
}

// readVersion returns the version of id and whether a write is in flight
func readVersion(ctx context.Context, rdb redis.Cmdable, id uuid.UUID) (int64, bool, error) {
	vals, err := rdb.MGet(ctx, versionKey(id), pendingKey(id)).Result()
	if err != nil {
		return 0, false, err
	}
	version, err := counter(vals[0])
	if err != nil {
		return 0, false, err
	}
	pending, err := counter(vals[1])
	if err != nil {
		return 0, false, err
	}
	return version, pending > 0, nil
}

// Version returns the current fill version of id. ok is false while a
// write is in flight or Redis cannot answer.
func (c *BalanceCache) Version(ctx context.Context, id uuid.UUID) (int64, bool) {
	version, pending, err := readVersion(ctx, c.rdb, id)
	if err != nil {
		c.log.WithFields(logrus.Fields{"account_id": id, "error": err.Error()}).Warn("Balance cache version read failed")
		return 0, false
	}
	return version, !pending
}

// SetBalance stores a balance for the cache TTL if version is still current
func (c *BalanceCache) SetBalance(ctx context.Context, id uuid.UUID, bal decimal.Decimal, version int64) {
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, pending, err := readVersion(ctx, tx, id)
		if err != nil {
			return err
		}
		if pending || current != version {
			return errFillSkipped // A write started or finished since version was read
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return SetCache(ctx, pipe, balanceKey(id), bal, c.ttl)
		})
		return err
	}, versionKey(id), pendingKey(id))

	switch {
	case err == nil:
	case errors.Is(err, errFillSkipped), errors.Is(err, redis.TxFailedErr):
		c.log.WithField("account_id", id).Debug("Balance cache fill skipped")
	default:
		c.log.WithFields(logrus.Fields{"account_id": id, "error": err.Error()}).Warn("Balance cache write failed")
	}
}

// writeKeys lists the balance/version/pending keys of each account
func writeKeys(ids []uuid.UUID) []string {
	keys := make([]string, 0, 3*len(ids))
	for _, id := range ids {
		keys = append(keys, balanceKey(id), versionKey(id), pendingKey(id))
	}
	return keys
}

// BeginWrite marks the accounts as being written and drops their balances
func (c *BalanceCache) BeginWrite(ctx context.Context, ids ...uuid.UUID) {
	c.runWriteScript(ctx, beginWriteScript, "Balance cache write mark failed", ids, pendingTTL.Milliseconds())
}

// EndWrite clears a mark set by BeginWrite and drops the balances again
func (c *BalanceCache) EndWrite(ctx context.Context, ids ...uuid.UUID) {
	c.runWriteScript(ctx, endWriteScript, "Balance cache write unmark failed", ids)
}

func (c *BalanceCache) runWriteScript(ctx context.Context, script *redis.Script, msg string, ids []uuid.UUID, args ...any) {
	if len(ids) == 0 {
		return
	}
	keys := writeKeys(ids) // Cache keys touched by the script
	if err := script.Run(ctx, c.rdb, keys, args...).Err(); err != nil {
		c.log.WithFields(logrus.Fields{"keys": keys, "error": err.Error()}).Warn(msg)
	}
}
