package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goAuthClient/internal/watch"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrRecordNotFound is returned by Get when no user is cached under the id.
	ErrRecordNotFound = errors.New("user record not found")
	// ErrRedisUnavailable wraps every backend failure.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrInvalidRecord is returned when a record to persist lacks an id.
	ErrInvalidRecord = errors.New("invalid user record")
)

const maxWatchRetries = 4

const deleteAllScript = `
local prefix = ARGV[1]
local users = redis.call("SMEMBERS", KEYS[1])
for _, id in ipairs(users) do
  redis.call("DEL", prefix .. ":user:" .. id, prefix .. ":mu:" .. id)
end
local orgs = redis.call("SMEMBERS", KEYS[2])
for _, id in ipairs(orgs) do
  redis.call("DEL", prefix .. ":mo:" .. id)
end
redis.call("DEL", KEYS[1], KEYS[2], KEYS[3])
return #users
`

var deleteAllLua = redis.NewScript(deleteAllScript)

// Store is the Redis-backed user cache. It holds at most one logged-in
// user at a time (the "current" pointer) alongside any previously cached
// records, plus the user/organization membership index.
//
// Key layout under prefix p:
//
//	p:user:<id>    hash    flattened UserRecord
//	p:users        set     every cached user id
//	p:current      string  id of the logged-in user
//	p:mu:<userID>  hash    orgID -> role for one user
//	p:mo:<orgID>   hash    userID -> role for one organization
//	p:orgs         set     every organization with members
type Store struct {
	redis    redis.UniversalClient
	prefix   string
	loggedIn *watch.Value[*UserRecord]
}

// NewStore creates a cache Store. An empty prefix defaults to "gac:c".
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "gac:c"
	}
	return &Store{
		redis:    redisClient,
		prefix:   prefix,
		loggedIn: watch.NewValue[*UserRecord](),
	}
}

func (s *Store) userKey(id string) string        { return s.prefix + ":user:" + id }
func (s *Store) usersKey() string                { return s.prefix + ":users" }
func (s *Store) currentKey() string              { return s.prefix + ":current" }
func (s *Store) userMembersKey(id string) string { return s.prefix + ":mu:" + id }
func (s *Store) orgMembersKey(id string) string  { return s.prefix + ":mo:" + id }
func (s *Store) orgsKey() string                 { return s.prefix + ":orgs" }

// Get returns the cached record for id.
func (s *Store) Get(ctx context.Context, id string) (*UserRecord, error) {
	m, err := s.redis.HGetAll(ctx, s.userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(m) == 0 {
		return nil, ErrRecordNotFound
	}
	return decodeRecord(m)
}

// Upsert replaces the record with the same id and marks it as the
// logged-in user. Observers receive the new record.
func (s *Store) Upsert(ctx context.Context, rec *UserRecord) error {
	if rec == nil || rec.ID == "" {
		return ErrInvalidRecord
	}

	key := s.userKey(rec.ID)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, rec.fields())
		pipe.SAdd(ctx, s.usersKey(), rec.ID)
		pipe.Set(ctx, s.currentKey(), rec.ID, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	published := *rec
	s.loggedIn.Publish(&published)
	return nil
}

// Delete removes one cached user together with its memberships. Deleting
// the logged-in user clears the current pointer.
func (s *Store) Delete(ctx context.Context, id string) error {
	for i := 0; i < maxWatchRetries; i++ {
		var wasCurrent bool
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.Get(ctx, s.currentKey()).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			wasCurrent = current == id

			orgs, err := tx.HKeys(ctx, s.userMembersKey(id)).Result()
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, s.userKey(id), s.userMembersKey(id))
				pipe.SRem(ctx, s.usersKey(), id)
				for _, org := range orgs {
					pipe.HDel(ctx, s.orgMembersKey(org), id)
				}
				if wasCurrent {
					pipe.Del(ctx, s.currentKey())
				}
				return nil
			})
			return err
		}, s.currentKey(), s.userMembersKey(id))

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if wasCurrent {
			s.loggedIn.Publish(nil)
		}
		return nil
	}
	return fmt.Errorf("%w: delete contention", ErrRedisUnavailable)
}

// DeleteAll removes every cached user and membership. It returns the
// number of user records removed.
func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	n, err := deleteAllLua.Run(
		ctx,
		s.redis,
		[]string{s.usersKey(), s.orgsKey(), s.currentKey()},
		s.prefix,
	).Int()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	s.loggedIn.Publish(nil)
	return n, nil
}

// Count returns the number of cached user records.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.redis.SCard(ctx, s.usersKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(n), nil
}

// LoggedIn returns the logged-in user record, or nil when there is none.
func (s *Store) LoggedIn(ctx context.Context) (*UserRecord, error) {
	id, err := s.redis.Get(ctx, s.currentKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	rec, err := s.Get(ctx, id)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, nil
	}
	return rec, err
}

// Observe streams the logged-in user. The current value (possibly nil) is
// delivered first, then every change made through this Store. The channel
// closes when ctx is done.
func (s *Store) Observe(ctx context.Context) (<-chan *UserRecord, error) {
	if _, ok := s.loggedIn.Current(); !ok {
		rec, err := s.LoggedIn(ctx)
		if err != nil {
			return nil, err
		}
		s.loggedIn.Publish(rec)
	}
	return s.loggedIn.Subscribe(ctx), nil
}

// ReplaceMemberships atomically swaps the membership set of userID for
// records. Records for other users are ignored; duplicates on OrgID keep
// the last role.
func (s *Store) ReplaceMemberships(ctx context.Context, userID string, records []MembershipRecord) error {
	if userID == "" {
		return ErrInvalidRecord
	}

	roles := make(map[string]string, len(records))
	for _, r := range records {
		if r.UserID != userID || r.OrgID == "" {
			continue
		}
		roles[r.OrgID] = r.RoleName
	}

	userKey := s.userMembersKey(userID)
	for i := 0; i < maxWatchRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			previous, err := tx.HKeys(ctx, userKey).Result()
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for _, org := range previous {
					pipe.HDel(ctx, s.orgMembersKey(org), userID)
				}
				pipe.Del(ctx, userKey)
				for org, role := range roles {
					pipe.HSet(ctx, userKey, org, role)
					pipe.HSet(ctx, s.orgMembersKey(org), userID, role)
					pipe.SAdd(ctx, s.orgsKey(), org)
				}
				return nil
			})
			return err
		}, userKey)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		return nil
	}
	return fmt.Errorf("%w: membership contention", ErrRedisUnavailable)
}

// Memberships lists the organizations userID belongs to.
func (s *Store) Memberships(ctx context.Context, userID string) ([]MembershipRecord, error) {
	m, err := s.redis.HGetAll(ctx, s.userMembersKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	out := make([]MembershipRecord, 0, len(m))
	for org, role := range m {
		out = append(out, MembershipRecord{UserID: userID, OrgID: org, RoleName: role})
	}
	sortMemberships(out)
	return out, nil
}

// OrganizationMembers lists the cached users of orgID.
func (s *Store) OrganizationMembers(ctx context.Context, orgID string) ([]MembershipRecord, error) {
	m, err := s.redis.HGetAll(ctx, s.orgMembersKey(orgID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	out := make([]MembershipRecord, 0, len(m))
	for user, role := range m {
		out = append(out, MembershipRecord{UserID: user, OrgID: orgID, RoleName: role})
	}
	sortMemberships(out)
	return out, nil
}

// Ping checks backend availability.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
