package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/openstay/rentledger/internal/billing"
	billingdomain "github.com/openstay/rentledger/internal/billing/domain"
	"github.com/openstay/rentledger/internal/config"
	"github.com/openstay/rentledger/internal/directory"
	directorydomain "github.com/openstay/rentledger/internal/directory/domain"
	"github.com/openstay/rentledger/internal/metering"
	meteringdomain "github.com/openstay/rentledger/internal/metering/domain"
	"github.com/openstay/rentledger/internal/notification"
	"github.com/openstay/rentledger/internal/observability"
	obslogger "github.com/openstay/rentledger/internal/observability/logger"
	obsmetrics "github.com/openstay/rentledger/internal/observability/metrics"
	"github.com/openstay/rentledger/internal/reconcile"
	"github.com/openstay/rentledger/internal/settings"
	settingsdomain "github.com/openstay/rentledger/internal/settings/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	notification.Module,
	settings.Module,
	directory.Module,
	metering.Module,
	billing.Module,
	reconcile.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, metrics *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(ErrorHandlingMiddleware())
	r.Use(ActorMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	return r
}

func registerGin(_ observability.Config, log *zap.Logger, metrics *obsmetrics.Metrics) *gin.Engine {
	return NewEngine(log, metrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	genID        *snowflake.Node
	directorySvc directorydomain.Service
	meteringSvc  meteringdomain.Service
	billingSvc   billingdomain.Service
	settingsSvc  settingsdomain.Service
	reconciler   *reconcile.Reconciler
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	GenID        *snowflake.Node
	DirectorySvc directorydomain.Service
	MeteringSvc  meteringdomain.Service
	BillingSvc   billingdomain.Service
	SettingsSvc  settingsdomain.Service
	Reconciler   *reconcile.Reconciler
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		genID:        p.GenID,
		directorySvc: p.DirectorySvc,
		meteringSvc:  p.MeteringSvc,
		billingSvc:   p.BillingSvc,
		settingsSvc:  p.SettingsSvc,
		reconciler:   p.Reconciler,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	v1.POST("/rooms", s.CreateRoom)
	v1.GET("/rooms", s.ListRooms)
	v1.GET("/rooms/:id", s.GetRoom)

	v1.POST("/tenants", s.CreateTenant)
	v1.GET("/tenants", s.ListTenants)
	v1.GET("/tenants/:id", s.GetTenant)
	v1.POST("/tenants/:id/occupy", s.OccupyRoom)
	v1.POST("/tenants/:id/vacate", s.VacateRoom)

	v1.POST("/tenants/:id/readings", s.SubmitReading)
	v1.GET("/tenants/:id/readings", s.ListReadings)
	v1.GET("/tenants/:id/baseline", s.GetBaseline)

	v1.POST("/tenants/:id/bills", s.GenerateBill)
	v1.GET("/tenants/:id/bills", s.ListBills)
	v1.GET("/tenants/:id/bills/current", s.GetCurrentBill)
	v1.GET("/bills/:id", s.GetBill)
	v1.POST("/bills/:id/payments", s.RecordPayment)
	v1.PUT("/bills/:id/status", s.SetBillStatus)

	v1.GET("/settings", s.GetSettings)
	v1.PUT("/settings", s.UpdateSettings)

	v1.POST("/reconcile", s.Reconcile)
	v1.POST("/tenants/:id/reconcile", s.ReconcileTenant)
}
