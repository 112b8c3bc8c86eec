package auth

import (
	"hash/crc32"
	"sort"
	"strconv"
	"sync"
)

const defaultReplicas = 64

// ConsistentHashRing 把令牌映射到固定的鉴权缓存分片。
// 分片名只参与缓存键的构造，增减节点时大部分令牌的归属保持不变，
// 避免扩容后缓存整体失效。
type ConsistentHashRing struct {
	mu       sync.RWMutex
	replicas int
	ring     []int          // 升序的虚拟节点哈希
	owner    map[int]string // 虚拟节点哈希 -> 分片名
	members  map[string]struct{}
}

// NewConsistentHashRing 构建哈希环。shards 为空时退化为单分片，
// 保证调用方拿到的环总是可路由的。
func NewConsistentHashRing(shards []string, replicas int) *ConsistentHashRing {
	if replicas <= 0 {
		replicas = defaultReplicas
	}
	r := &ConsistentHashRing{
		replicas: replicas,
		owner:    make(map[int]string),
		members:  make(map[string]struct{}),
	}
	if len(shards) == 0 {
		shards = []string{"shard0"}
	}
	r.Add(shards...)
	return r
}

// Add 加入分片，重复加入同名分片是空操作
func (r *ConsistentHashRing) Add(shards ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, shard := range shards {
		if _, ok := r.members[shard]; ok {
			continue
		}
		r.members[shard] = struct{}{}
		for i := 0; i < r.replicas; i++ {
			h := int(crc32.ChecksumIEEE([]byte(strconv.Itoa(i) + "@" + shard)))
			r.ring = append(r.ring, h)
			r.owner[h] = shard
		}
	}
	sort.Ints(r.ring)
}

// GetNode 返回 key 归属的分片名
func (r *ConsistentHashRing) GetNode(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.ring) == 0 {
		return ""
	}
	h := int(crc32.ChecksumIEEE([]byte(key)))
	i := sort.SearchInts(r.ring, h)
	if i == len(r.ring) {
		i = 0
	}
	return r.owner[r.ring[i]]
}
