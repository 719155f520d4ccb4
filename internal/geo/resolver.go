package geo

import (
	"context"
	"sync"
	"time"

	"github.com/CyberNilsen/CyberNetMon/internal/model"
	"github.com/go-orz/cache"
	"go.uber.org/zap"
)

// 非公网地址与查询失败的合成结果
var (
	localInfo   = model.GeoInfo{Country: "Local", City: "Local", Org: "Local Network", Flag: flagLocal}
	unknownInfo = model.GeoInfo{Country: "Unknown", City: "Unknown", Org: "Unknown ISP", Flag: flagUnknown}
)

// foreverTTL 缓存 TTL 为 0 时的实际写入值，等价于进程生命周期内不过期
const foreverTTL = 100 * 365 * 24 * time.Hour

// cacheCleanupInterval 过期条目的后台清理间隔
const cacheCleanupInterval = 10 * time.Minute

// Resolver 带缓存的地理位置解析器。
// 查询失败会以 Unknown 占位写入缓存，与成功结果同等对待，
// 在 TTL 内不会对同一 IP 重复发起网络查询。
type Resolver struct {
	logger   *zap.Logger
	provider Provider
	ttl      time.Duration

	mu    sync.RWMutex
	cache cache.Cache[string, model.GeoInfo]
}

// NewResolver 创建解析器。ttl 为 0 表示缓存进程生命周期内不过期。
// provider 为 nil 时公网地址一律返回 Unknown，不发起任何查询。
func NewResolver(logger *zap.Logger, provider Provider, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = foreverTTL
	}
	return &Resolver{
		logger:   logger,
		provider: provider,
		ttl:      ttl,
		cache:    cache.New[string, model.GeoInfo](cacheCleanupInterval),
	}
}

// Resolve 解析 IP 的地理信息。命中缓存时直接返回（包括失败占位）；
// 非公网地址返回固定的 Local 结果，永远不会触发网络查询。
// 任何失败都归一化为 Unknown，不向调用方返回错误。
func (r *Resolver) Resolve(ctx context.Context, ip string) model.GeoInfo {
	store := r.store()
	if info, ok := store.Get(ip); ok {
		return info
	}

	if !Classify(ip).IsPublic() {
		store.Set(ip, localInfo, r.ttl)
		return localInfo
	}

	if r.provider == nil {
		store.Set(ip, unknownInfo, r.ttl)
		return unknownInfo
	}

	info, err := r.provider.Lookup(ctx, ip)
	if err != nil {
		r.logger.Debug("地理位置查询失败", zap.String("ip", ip), zap.Error(err))
		store.Set(ip, unknownInfo, r.ttl)
		return unknownInfo
	}

	store.Set(ip, info, r.ttl)
	return info
}

// ClearCache 清空缓存，之后的解析会重新查询
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = cache.New[string, model.GeoInfo](cacheCleanupInterval)
}

func (r *Resolver) store() cache.Cache[string, model.GeoInfo] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache
}
