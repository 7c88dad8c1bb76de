package worker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/deposit"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/outbox"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/withdrawal"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/lock"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/logger"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/monitor"
)

// Jobs 对账流水线的所有批处理任务
type Jobs struct {
	Scanner     *deposit.Scanner
	Confirmer   *deposit.Confirmer
	ReorgCheck  *deposit.ReorgChecker
	Creditor    *deposit.Creditor
	Resolver    *deposit.Resolver
	Broadcaster *withdrawal.Broadcaster
	Settler     *withdrawal.Settler
	Relay       *outbox.Relay
}

// CronService 按计划驱动批处理任务。
// 每个任务跑之前抢 Redis 分布式锁，多实例部署时同一任务同时只有一个在跑。
type CronService struct {
	cron   *cron.Cron
	locker lock.DistributedLock
	jobs   Jobs
}

func NewCronService(rdb *redis.Client, jobs Jobs) *CronService {
	return &CronService{
		cron:   cron.New(cron.WithSeconds()),
		locker: lock.NewRedisLock(rdb),
		jobs:   jobs,
	}
}

func (s *CronService) Start() {
	// 扫描节奏跟着 BSC 3 秒出块走，其余任务跟在后面
	_, _ = s.cron.AddFunc("@every 5s", s.job("deposit_scan", func(ctx context.Context) error {
		_, err := s.jobs.Scanner.Run(ctx)
		return err
	}))
	_, _ = s.cron.AddFunc("@every 10s", s.job("deposit_confirm", func(ctx context.Context) error {
		_, err := s.jobs.Confirmer.Run(ctx)
		return err
	}))
	_, _ = s.cron.AddFunc("@every 30s", s.job("deposit_reorg_check", func(ctx context.Context) error {
		_, err := s.jobs.ReorgCheck.Run(ctx)
		return err
	}))
	_, _ = s.cron.AddFunc("@every 10s", s.job("deposit_credit", func(ctx context.Context) error {
		_, err := s.jobs.Creditor.Run(ctx)
		return err
	}))
	_, _ = s.cron.AddFunc("@every 1m", s.job("deposit_freeze_orphaned", func(ctx context.Context) error {
		_, err := s.jobs.Resolver.FreezeOrphaned(ctx)
		return err
	}))
	_, _ = s.cron.AddFunc("@every 10s", s.job("withdrawal_broadcast", func(ctx context.Context) error {
		_, err := s.jobs.Broadcaster.Run(ctx)
		return err
	}))
	_, _ = s.cron.AddFunc("@every 15s", s.job("withdrawal_settle", func(ctx context.Context) error {
		_, err := s.jobs.Settler.Run(ctx)
		return err
	}))
	_, _ = s.cron.AddFunc("@every 5s", s.job("outbox_relay", func(ctx context.Context) error {
		_, err := s.jobs.Relay.Run(ctx)
		return err
	}))
	// 投递失败的消息定期回炉，避免永远卡在 FAILED
	_, _ = s.cron.AddFunc("@every 1m", s.job("outbox_retry_failed", func(ctx context.Context) error {
		return s.jobs.Relay.RetryFailed(ctx)
	}))

	s.cron.Start()
	logger.Info("Cron Service started")
}

func (s *CronService) Stop() {
	s.cron.Stop()
	logger.Info("Cron Service stopped")
}

func (s *CronService) job(name string, fn func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		locked, err := s.locker.Acquire(ctx, "cron:"+name, 2*time.Minute)
		if err != nil || !locked {
			logger.Debug("任务锁被占用，跳过", zap.String("job", name))
			return
		}
		defer s.locker.Release(ctx, "cron:"+name)

		start := time.Now()
		if err := fn(ctx); err != nil {
			logger.Error("任务执行失败", zap.String("job", name), zap.Error(err))
		}
		monitor.Business.BatchJobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}
