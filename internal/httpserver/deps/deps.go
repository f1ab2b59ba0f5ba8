package deps

import (
	"io/fs"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkbrechtel/patterns/internal/index"
	"github.com/mkbrechtel/patterns/internal/logger"
	"github.com/mkbrechtel/patterns/internal/metrics"
	redisstore "github.com/mkbrechtel/patterns/internal/store/redis"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	AllowedHosts []string // Host headers allowed on /reload
	AllowedCIDRS []string // IPs allowed on the admin endpoints
	TrustProxy   bool     // true if running behind a trusted reverse proxy (e.g., cloudflared)
	ReloadBurst  int      // /reload token bucket size per client IP
	ReloadPerMin int      // /reload refill rate per client IP

	Index         *index.SiteIndex  // Snapshot being served
	ContentFS     fs.FS             // Content tree, served raw under /raw/
	Metrics       *metrics.Metrics  // nil disables /metrics
	RedisClient   *redis.Client     // nil when Redis is disabled
	Store         *redisstore.Store // nil when Redis is disabled
	ReloadTrigger chan struct{}     // Channel to trigger a rebuild
	Watching      bool              // content watcher running
}
