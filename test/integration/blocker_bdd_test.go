//go:build integration

package integration

import (
	"context"
	"errors"
	"time"
	_ "time/tzdata"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/daemon"
	"github.com/eliteGoblin/focusd/app_block/internal/domain"
	"github.com/eliteGoblin/focusd/app_block/internal/infra"
	"github.com/eliteGoblin/focusd/app_block/internal/usecase"
	"github.com/eliteGoblin/focusd/app_block/test/fixtures"
)

// idleRunner blocks until ctx is done.
type idleRunner struct{}

func (idleRunner) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func todayAt(hour, minute int) time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.Local)
}

var _ = Describe("Blocker", func() {
	var (
		ctx      context.Context
		logger   *zap.Logger
		provider *infra.SQLProvider
		settings *usecase.Settings
		host     *fixtures.FakeHost
		relay    *usecase.Relay
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = zap.NewNop()

		key, err := infra.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		db, err := infra.OpenDatabase(ctx, GinkgoT().TempDir(), key)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(db.Close)

		provider = infra.NewSQLProvider(db, logger)
		settings = usecase.NewSettings(provider, logger)
		host = &fixtures.FakeHost{}
		relay = usecase.NewRelay(host, nil, logger)
	})

	Describe("Observer", func() {
		var observer *usecase.Observer
		clock := todayAt(10, 0)

		BeforeEach(func() {
			observer = usecase.NewObserverWithClock(settings, relay, logger, func() time.Time { return clock })
			_, err := settings.ReplaceBlockedPackages(ctx, []string{"steam", "dota2"})
			Expect(err).NotTo(HaveOccurred())
		})

		Context("with a 09:00-17:00 working window", func() {
			BeforeEach(func() {
				Expect(settings.SetWorkingWindow(ctx, domain.NewWorkingWindow(todayAt(9, 0), todayAt(17, 0)))).To(Succeed())
			})

			It("should block a blocked app at 10:00", func() {
				clock = todayAt(10, 0)
				Expect(observer.OnEvent(ctx, domain.UIEvent{Kind: domain.EventWindowStateChanged, Package: "steam"})).To(BeTrue())

				pkg, ok := relay.TakeBlockedApp()
				Expect(ok).To(BeTrue())
				Expect(pkg).To(Equal("steam"))
				Expect(host.Payloads()).To(Equal([]string{"steam"}))
			})

			It("should not block the same app at 18:00", func() {
				clock = todayAt(18, 0)
				Expect(observer.OnEvent(ctx, domain.UIEvent{Kind: domain.EventWindowStateChanged, Package: "steam"})).To(BeFalse())
				Expect(host.Payloads()).To(BeEmpty())
			})

			It("should not block an app that is not on the list", func() {
				clock = todayAt(10, 0)
				Expect(observer.OnEvent(ctx, domain.UIEvent{Kind: domain.EventWindowStateChanged, Package: "terminal"})).To(BeFalse())
			})

			It("should follow list changes without a restart", func() {
				clock = todayAt(10, 0)
				_, err := settings.ReplaceBlockedPackages(ctx, []string{"terminal"})
				Expect(err).NotTo(HaveOccurred())

				Expect(observer.OnEvent(ctx, domain.UIEvent{Kind: domain.EventViewClicked, Package: "steam"})).To(BeFalse())
				Expect(observer.OnEvent(ctx, domain.UIEvent{Kind: domain.EventViewClicked, Package: "terminal"})).To(BeTrue())
			})
		})

		Context("without a working window", func() {
			It("should never block", func() {
				clock = todayAt(10, 0)
				Expect(observer.OnEvent(ctx, domain.UIEvent{Kind: domain.EventWindowStateChanged, Package: "steam"})).To(BeFalse())
				_, ok := relay.TakeBlockedApp()
				Expect(ok).To(BeFalse())
			})
		})
	})

	Describe("Re-armer", func() {
		It("should move a stored window across spring-forward by one local day", func() {
			loc, err := time.LoadLocation("America/New_York")
			Expect(err).NotTo(HaveOccurred())

			from := time.Date(2024, 3, 9, 23, 50, 0, 0, loc)
			to := time.Date(2024, 3, 10, 1, 0, 0, 0, loc)
			Expect(settings.SetWorkingWindow(ctx, domain.NewWorkingWindow(from, to))).To(Succeed())

			rearmer := usecase.NewRearmer(usecase.RearmerConfig{Hour: 23, Minute: 50, Location: loc}, settings, nil, nil, logger)
			Expect(rearmer.RunOnce(ctx)).To(Succeed())

			w, err := settings.WorkingWindow(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).NotTo(BeNil())
			Expect(w.FromTime(loc)).To(BeTemporally("==", time.Date(2024, 3, 10, 23, 50, 0, 0, loc)))
			Expect(w.ToTime(loc)).To(BeTemporally("==", time.Date(2024, 3, 11, 1, 0, 0, 0, loc)))
			Expect(w.From - from.UnixMilli()).NotTo(Equal(int64(86_400_000)))
		})

		It("should leave an empty store alone", func() {
			rearmer := usecase.NewRearmer(usecase.DefaultRearmerConfig(), settings, nil, nil, logger)
			Expect(rearmer.RunOnce(ctx)).To(Succeed())

			w, err := settings.WorkingWindow(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(BeNil())
		})
	})

	Describe("Daemon", func() {
		var (
			procs  *fixtures.ScriptedProcesses
			cancel context.CancelFunc
			done   chan error
		)

		BeforeEach(func() {
			Expect(settings.SetWorkingWindow(ctx, domain.NewWorkingWindow(
				time.Now().Add(-time.Hour), time.Now().Add(time.Hour)))).To(Succeed())
			_, err := settings.ReplaceBlockedPackages(ctx, []string{"steam"})
			Expect(err).NotTo(HaveOccurred())

			procs = fixtures.NewScriptedProcesses("terminal")
			source := infra.NewProcessEventSource(procs, 10*time.Millisecond, logger)
			observer := usecase.NewObserver(settings, relay, nil, logger)

			db, err := infra.OpenDatabase(ctx, GinkgoT().TempDir(), mustKey())
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(db.Close)
			state := infra.NewSQLStateStore(db, procs)

			config := daemon.DefaultWatcherConfig()
			config.SourceRestartDelay = 20 * time.Millisecond

			watcher := daemon.NewWatcher(config, source, observer, idleRunner{}, state,
				domain.DaemonState{PID: procs.GetCurrentPID(), AppVersion: "test", LastHeartbeat: time.Now()},
				logger)

			var runCtx context.Context
			runCtx, cancel = context.WithCancel(ctx)
			done = make(chan error, 1)
			go func() { done <- watcher.Run(runCtx) }()
		})

		AfterEach(func() {
			cancel()
			Eventually(done).Should(Receive())
		})

		It("should summon the host when a blocked app starts", func() {
			Consistently(host.Payloads, 50*time.Millisecond).Should(BeEmpty())

			procs.Set("terminal", "steam")
			Eventually(host.Payloads).Should(ContainElement("steam"))
		})

		It("should report the service disabled when the source is interrupted", func() {
			procs.Fail(errors.New("process table unavailable"))
			Eventually(host.Payloads).Should(ContainElement(domain.ServiceDisabled))

			procs.Set("steam")
			Eventually(host.Payloads).Should(ContainElement("steam"))
		})
	})
})

func mustKey() []byte {
	key, err := infra.GenerateKey()
	Expect(err).NotTo(HaveOccurred())
	return key
}
