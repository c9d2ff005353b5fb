// pkg/store/redis.go

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	sync.Mutex
	conf *Config
	rdb  *redis.Client

	shaChecksum string // The SHA returned by Redis for the loaded `scriptChecksum`
}

var _ Store = &redisStore{}

func init() {
	Register("redis", newRedisStore)
}

// newRedisStore return a record store using Redis.
func newRedisStore(driver, addr string, conf *Config) (Store, error) {
	url := driver + "://" + addr
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %s", url, err)
	}

	var rdb *redis.Client
	if strings.Contains(opt.Addr, ",") {
		var fopt redis.FailoverOptions
		ps := strings.Split(opt.Addr, ",")
		fopt.MasterName = ps[0]
		fopt.SentinelAddrs = ps[1:]

		defaultSentinelPort := "26379"
		for i, saddr := range fopt.SentinelAddrs {
			h, p, err := net.SplitHostPort(saddr)
			if err != nil {
				// If SplitHostPort fails, assume it's just a host and add the default port
				fopt.SentinelAddrs[i] = net.JoinHostPort(saddr, defaultSentinelPort)
			} else if p == "" {
				fopt.SentinelAddrs[i] = net.JoinHostPort(h, defaultSentinelPort)
			}
		}

		fopt.Username = opt.Username
		fopt.Password = opt.Password
		if fopt.Password == "" && os.Getenv("REDIS_PASSWORD") != "" {
			fopt.Password = os.Getenv("REDIS_PASSWORD")
		}
		fopt.SentinelPassword = os.Getenv("SENTINEL_PASSWORD")
		fopt.DB = opt.DB
		fopt.TLSConfig = opt.TLSConfig
		fopt.MaxRetries = conf.Retries
		fopt.MinRetryBackoff = time.Millisecond * 100
		fopt.MaxRetryBackoff = time.Minute * 1
		fopt.ReadTimeout = time.Second * 30
		fopt.WriteTimeout = time.Second * 5
		rdb = redis.NewFailoverClient(&fopt)
	} else {
		if opt.Password == "" && os.Getenv("REDIS_PASSWORD") != "" {
			opt.Password = os.Getenv("REDIS_PASSWORD")
		}
		opt.MaxRetries = conf.Retries
		opt.MinRetryBackoff = time.Millisecond * 100
		opt.MaxRetryBackoff = time.Minute * 1
		opt.ReadTimeout = time.Second * 30
		opt.WriteTimeout = time.Second * 5
		rdb = redis.NewClient(opt)
	}

	return &redisStore{conf: conf, rdb: rdb}, nil
}

func (rs *redisStore) Name() string {
	return "redis"
}

// filesKey holds the filename -> id hash of a root.
func (rs *redisStore) filesKey(root string) string {
	return root + ".files"
}

// fileKey holds the JSON-encoded FileInfo of one file.
func (rs *redisStore) fileKey(root, id string) string {
	return root + ".f" + id
}

func (rs *redisStore) chunkKey(root, id string, n int64) string {
	return rs.chunkPrefix(root, id) + strconv.FormatInt(n, 10)
}

// chunkPrefix is the common prefix of a file's chunk keys; the Lua
// checksum script appends sequence numbers to it.
func (rs *redisStore) chunkPrefix(root, id string) string {
	return root + ".c" + id + "_"
}

// chunkIndexKey holds the sorted set of a file's chunk sequence numbers,
// the redis shape of the composite (file id, n) index.
func (rs *redisStore) chunkIndexKey(root, id string) string {
	return root + ".cs" + id
}

func (rs *redisStore) EnsureIndex(ctx context.Context, root string) error {
	// The chunk index is maintained by PutChunk; loading the checksum
	// script up front doubles as a connectivity check.
	return rs.loadScript(ctx)
}

func (rs *redisStore) loadScript(ctx context.Context) error {
	rs.Lock()
	defer rs.Unlock()
	sha, err := rs.rdb.ScriptLoad(ctx, scriptChecksum).Result()
	if err != nil {
		return err
	}
	logger.Debugf("checksum script loaded as %s", sha)
	rs.shaChecksum = sha
	return nil
}

func (rs *redisStore) LookupFile(ctx context.Context, root, filename string) (*FileInfo, error) {
	id, err := rs.rdb.HGet(ctx, rs.filesKey(root), filename).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	body, err := rs.rdb.Get(ctx, rs.fileKey(root, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Warnf("dangling filename %s points at missing record %s", filename, id)
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var info FileInfo
	if err = json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("broken record %s: %s", id, err)
	}
	return &info, nil
}

func (rs *redisStore) InsertFile(ctx context.Context, root string, info *FileInfo) error {
	body, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("json: %s", err)
	}
	p := rs.rdb.TxPipeline()
	p.HSet(ctx, rs.filesKey(root), info.Filename, info.ID)
	p.Set(ctx, rs.fileKey(root, info.ID), body, 0)
	_, err = p.Exec(ctx)
	return err
}

func (rs *redisStore) RemoveFile(ctx context.Context, root, id string) error {
	info, err := rs.getFile(ctx, root, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	p := rs.rdb.TxPipeline()
	p.HDel(ctx, rs.filesKey(root), info.Filename)
	p.Del(ctx, rs.fileKey(root, id))
	_, err = p.Exec(ctx)
	return err
}

func (rs *redisStore) UpdateFilename(ctx context.Context, root, id, filename string) error {
	info, err := rs.getFile(ctx, root, id)
	if err != nil {
		return err
	}
	old := info.Filename
	info.Filename = filename
	body, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("json: %s", err)
	}
	p := rs.rdb.TxPipeline()
	p.HDel(ctx, rs.filesKey(root), old)
	p.HSet(ctx, rs.filesKey(root), filename, id)
	p.Set(ctx, rs.fileKey(root, id), body, 0)
	_, err = p.Exec(ctx)
	return err
}

func (rs *redisStore) getFile(ctx context.Context, root, id string) (*FileInfo, error) {
	body, err := rs.rdb.Get(ctx, rs.fileKey(root, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var info FileInfo
	if err = json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("broken record %s: %s", id, err)
	}
	return &info, nil
}

func (rs *redisStore) ListFilenames(ctx context.Context, root string) ([]string, error) {
	names, err := rs.rdb.HKeys(ctx, rs.filesKey(root)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (rs *redisStore) GetChunk(ctx context.Context, root, id string, n int64) ([]byte, error) {
	data, err := rs.rdb.Get(ctx, rs.chunkKey(root, id, n)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}

func (rs *redisStore) PutChunk(ctx context.Context, root, id string, n int64, data []byte) error {
	p := rs.rdb.TxPipeline()
	p.Set(ctx, rs.chunkKey(root, id, n), data, 0)
	p.ZAdd(ctx, rs.chunkIndexKey(root, id), redis.Z{Score: float64(n), Member: n})
	_, err := p.Exec(ctx)
	return err
}

func (rs *redisStore) RemoveChunks(ctx context.Context, root, id string) error {
	idxKey := rs.chunkIndexKey(root, id)
	ns, err := rs.rdb.ZRange(ctx, idxKey, 0, -1).Result()
	if err != nil {
		return err
	}
	if len(ns) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ns)+1)
	for _, n := range ns {
		keys = append(keys, rs.chunkPrefix(root, id)+n)
	}
	keys = append(keys, idxKey)
	return rs.rdb.Del(ctx, keys...).Err()
}

func (rs *redisStore) Checksum(ctx context.Context, root, id string) (string, error) {
	rs.Lock()
	sha := rs.shaChecksum
	rs.Unlock()
	if sha == "" {
		if err := rs.loadScript(ctx); err != nil {
			return "", err
		}
		rs.Lock()
		sha = rs.shaChecksum
		rs.Unlock()
	}
	keys := []string{rs.chunkIndexKey(root, id), rs.chunkPrefix(root, id)}
	res, err := rs.rdb.EvalSha(ctx, sha, keys).Result()
	if err != nil && strings.Contains(err.Error(), "NOSCRIPT") {
		// Scripts are flushed on server restart; reload and retry once.
		if err = rs.loadScript(ctx); err != nil {
			return "", err
		}
		rs.Lock()
		sha = rs.shaChecksum
		rs.Unlock()
		res, err = rs.rdb.EvalSha(ctx, sha, keys).Result()
	}
	if err != nil {
		return "", err
	}
	digest, ok := res.(string)
	if !ok {
		return "", fmt.Errorf("unexpected checksum reply: %v", res)
	}
	return digest, nil
}
