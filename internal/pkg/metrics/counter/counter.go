package counter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ManuelReschke/TierFox/internal/pkg/metrics"
)

const postLikesKey = "post:counters:likes"

// Likes buffers like increments in a Redis hash and applies them to the
// posts table in batches.
type Likes struct {
	rdb redis.Cmdable
	db  *gorm.DB
}

func NewLikes(rdb redis.Cmdable, db *gorm.DB) *Likes {
	return &Likes{rdb: rdb, db: db}
}

// Add increments the pending like counter of a post.
func (l *Likes) Add(ctx context.Context, postID uint) error {
	field := strconv.FormatUint(uint64(postID), 10)
	return l.rdb.HIncrBy(ctx, postLikesKey, field, 1).Err()
}

// Pending returns the not yet flushed likes of a post.
func (l *Likes) Pending(ctx context.Context, postID uint) (int64, error) {
	v, err := l.rdb.HGet(ctx, postLikesKey, strconv.FormatUint(uint64(postID), 10)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Flush drains the hash and applies the increments in one UPDATE. RENAME to a
// temp key makes the drain atomic; likes added meanwhile land in a new hash.
func (l *Likes) Flush(ctx context.Context) (int64, error) {
	tmpKey := fmt.Sprintf("%s:tmp:%d", postLikesKey, time.Now().UnixNano())
	if err := l.rdb.Rename(ctx, postLikesKey, tmpKey).Err(); err != nil {
		if errors.Is(err, redis.Nil) || strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return 0, nil
		}
		return 0, err
	}
	defer l.rdb.Del(ctx, tmpKey)

	data, err := l.rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return 0, err
	}

	type pair struct {
		id  uint64
		inc int64
	}
	pairs := make([]pair, 0, len(data))
	var total int64
	for k, v := range data {
		id, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, pair{id: id, inc: inc})
		total += inc
	}
	if len(pairs) == 0 {
		return 0, nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	// UPDATE posts SET likes = likes + CASE id WHEN ? THEN ? ... END WHERE id IN (...)
	var b strings.Builder
	args := make([]interface{}, 0, len(pairs)*3)
	b.WriteString("UPDATE posts SET likes = likes + CASE id")
	for _, p := range pairs {
		b.WriteString(" WHEN ? THEN ?")
		args = append(args, p.id, p.inc)
	}
	b.WriteString(" END WHERE id IN (")
	for i, p := range pairs {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
		args = append(args, p.id)
	}
	b.WriteString(")")

	if err := l.db.WithContext(ctx).Exec(b.String(), args...).Error; err != nil {
		// Put the increments back so they are retried on the next flush.
		for _, p := range pairs {
			l.rdb.HIncrBy(ctx, postLikesKey, strconv.FormatUint(p.id, 10), p.inc)
		}
		return 0, err
	}
	metrics.LikesFlushed.Add(float64(total))
	return total, nil
}
