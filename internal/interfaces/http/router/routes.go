package router

import (
	"github.com/gin-gonic/gin"
	"github.com/tradeledger/backend/internal/infrastructure/config"
	"github.com/tradeledger/backend/internal/infrastructure/logger"
	"github.com/tradeledger/backend/internal/interfaces/http/handler"
	"github.com/tradeledger/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers to mount. A nil handler leaves its
// resource unrouted.
type Handlers struct {
	System         *handler.SystemHandler
	Currencies     *handler.CurrencyHandler
	Customers      *handler.CustomerHandler
	Invoices       *handler.InvoiceHandler
	InvoiceStream  *handler.InvoiceStreamHandler
	Payments       *handler.PaymentHandler
	Rates          *handler.RateHandler
	Reconciliation *handler.ReconciliationHandler
	Settings       *handler.SettingsHandler
	DocumentFiles  *handler.DocumentFileHandler // in-memory document downloads
}

// Options configure the middleware chain
type Options struct {
	Logger    *zap.Logger
	HTTP      config.HTTPConfig
	Tracing   middleware.TracingConfig
	Meter     metric.Meter // nil disables HTTP metrics
	Profiling bool
}

// New builds the engine with the full middleware chain and every route
func New(opts Options, h Handlers) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
			_ = engine.SetTrustedProxies(nil)
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	cors := middleware.DefaultCORSConfig()
	if len(opts.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = opts.HTTP.CORSAllowOrigins
	}
	if len(opts.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = opts.HTTP.CORSAllowMethods
	}
	if len(opts.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = opts.HTTP.CORSAllowHeaders
	}

	// request id first so every later middleware can log it
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Tracing(opts.Tracing),
		middleware.SpanErrorMarker(),
	)
	if opts.Meter != nil {
		engine.Use(middleware.HTTPMetrics(opts.Meter, log))
	}
	profiling := middleware.DefaultProfilingConfig()
	profiling.Enabled = opts.Profiling
	engine.Use(
		middleware.Profiling(profiling),
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
	)
	if opts.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}

	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}
	if h.DocumentFiles != nil {
		engine.GET("/documents/*key", h.DocumentFiles.Download)
	}

	r := NewRouter(engine)
	for _, g := range domainGroups(h) {
		r.Register(g)
	}
	api := r.Setup()
	if h.System != nil {
		api.GET("/health", h.System.Health)
		api.GET("/system/info", h.System.Info)
		api.GET("/system/ping", h.System.Ping)
	}
	return engine
}

func domainGroups(h Handlers) []*DomainGroup {
	var groups []*DomainGroup

	if h.Currencies != nil {
		groups = append(groups, NewDomainGroup("currencies", "/currencies").
			GET("", h.Currencies.List).
			POST("", h.Currencies.Create).
			GET("/:code", h.Currencies.Get))
	}

	if h.Customers != nil {
		groups = append(groups, NewDomainGroup("customers", "/customers").
			GET("", h.Customers.List).
			POST("", h.Customers.Create).
			GET("/:id", h.Customers.Get).
			PUT("/:id", h.Customers.Update).
			GET("/:id/open-invoices", h.Customers.OpenInvoices))
	}

	if h.Invoices != nil {
		g := NewDomainGroup("invoices", "/invoices").
			GET("", h.Invoices.List).
			POST("", h.Invoices.Create)
		// static segment before /:id
		if h.InvoiceStream != nil {
			g.GET("/stream", h.InvoiceStream.Stream)
		}
		g.GET("/:id", h.Invoices.Get).
			PUT("/:id", h.Invoices.Update).
			DELETE("/:id", h.Invoices.Delete).
			POST("/:id/finalize", h.Invoices.Finalize).
			POST("/:id/document", h.Invoices.RenderDocument).
			GET("/:id/document", h.Invoices.DocumentLink)
		groups = append(groups, g)
	}

	if h.Payments != nil {
		groups = append(groups, NewDomainGroup("payments", "/payments").
			GET("", h.Payments.List).
			POST("", h.Payments.Apply).
			POST("/preview", h.Payments.Preview).
			GET("/next-number", h.Payments.NextNumber).
			GET("/:id", h.Payments.Get).
			DELETE("/:id", h.Payments.Delete))
	}

	if h.Rates != nil {
		groups = append(groups, NewDomainGroup("rates", "/rates").
			GET("/:currency", h.Rates.Lookup))
	}

	if h.Reconciliation != nil {
		groups = append(groups, NewDomainGroup("reconciliation", "/reconciliation").
			GET("", h.Reconciliation.Run))
	}

	if h.Settings != nil {
		groups = append(groups,
			NewDomainGroup("catalog", "/catalog-items").
				GET("", h.Settings.ListCatalogItems).
				POST("", h.Settings.CreateCatalogItem).
				DELETE("/:id", h.Settings.DeactivateCatalogItem),
			NewDomainGroup("invoice-metadata", "/invoice-metadata").
				GET("", h.Settings.GetMetadata).
				PUT("", h.Settings.SaveMetadata),
		)
	}

	return groups
}
