package sharding

// ShardRouter maps a user id onto one of ShardCount databases, so all rows of
// one user live together.
type ShardRouter struct {
	ShardCount int
}

func NewShardRouter(shardCount int) *ShardRouter {
	if shardCount < 1 {
		shardCount = 1
	}
	return &ShardRouter{ShardCount: shardCount}
}

func (r *ShardRouter) GetShard(userID int) int {
	shard := userID % r.ShardCount
	if shard < 0 {
		shard += r.ShardCount
	}
	return shard
}

// All lists every shard index, for operations that fan out.
func (r *ShardRouter) All() []int {
	shards := make([]int, r.ShardCount)
	for i := range shards {
		shards[i] = i
	}
	return shards
}
