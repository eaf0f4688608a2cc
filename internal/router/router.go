// internal/router/router.go
package router

import (
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/config"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/experiment"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/handlers"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/markers"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/repository"
)

// Deps are what the routes serve. Archive and Hub may be nil.
type Deps struct {
	Experiment *experiment.Experiment
	Archive    *repository.Archive
	Hub        *markers.Hub
	AssetsDir  string
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(http.StatusTooManyRequests, "Too many requests. Try again in "+time.Until(info.ResetTime).Round(time.Second).String()+".")
}

func Setup(log *zap.Logger, d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	store := cookie.NewStore([]byte(config.Conf.Server.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // the lab machine serves plain http on localhost
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400,
	})
	router.Use(sessions.Sessions("mysession", store))

	router.Use(NonceMiddleware())
	router.Use(CSRFProtection())
	router.Use(ContentSecurityPolicy())

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "same-origin",
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	})

	if d.AssetsDir != "" {
		router.Static("/assets", d.AssetsDir)
	}

	expHandler := handlers.NewExperimentHandler(log, d.Experiment)
	authHandler := handlers.NewAuthHandler(log)
	resultsHandler := handlers.NewResultsHandler(log, d.Archive)
	markersHandler := handlers.NewMarkersHandler(log, d.Experiment, d.Hub)

	limit := config.Conf.Server.LoginRateLimit
	if limit == 0 {
		limit = 5
	}
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: limit,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/healthz", markersHandler.Healthz)

	router.GET("/", expHandler.Home)
	router.GET("/experimenter/login", authHandler.ShowLoginPage)
	router.POST("/experimenter/login", limiter, authHandler.Login)
	router.POST("/experimenter/logout", authHandler.Logout)

	// Participant screens
	router.GET("/transition", expHandler.Show(experiment.SceneTransition))
	router.GET("/next", expHandler.Next)
	router.GET("/instructions", expHandler.Show(experiment.SceneInstructions))
	router.POST("/instructions", expHandler.ContinueInstructions)
	router.GET("/statements", expHandler.Show(experiment.SceneStatements))
	router.POST("/statements/rate", expHandler.RateStatement)
	router.POST("/statements/attention", expHandler.AnswerStatementAttention)
	router.GET("/articles/instructions", expHandler.Show(experiment.SceneArticleInstructions))
	router.POST("/articles/instructions", expHandler.ContinueArticleInstructions)
	router.GET("/topics", expHandler.Show(experiment.SceneTopics))
	router.POST("/topics", expHandler.SelectTopic)
	router.POST("/topics/back", expHandler.BackToTopics)
	router.GET("/articles", expHandler.Show(experiment.SceneArticles))
	router.POST("/articles/open", expHandler.OpenArticle)
	router.GET("/article", expHandler.Show(experiment.SceneArticle))
	router.POST("/article/rate", expHandler.RateArticle)
	router.POST("/article/attention", expHandler.AnswerArticleAttention)
	router.POST("/article/scroll", expHandler.ReportScroll)
	router.GET("/break", expHandler.Show(experiment.SceneBreak))
	router.POST("/break", expHandler.ContinueBreak)
	router.GET("/survey", expHandler.Show(experiment.SceneSurvey))
	router.POST("/survey", expHandler.SubmitSurvey)
	router.GET("/thankyou", expHandler.Show(experiment.SceneThankYou))
	router.POST("/thankyou", expHandler.Finish)

	experimenter := router.Group("/")
	experimenter.Use(ExperimenterRequired(log))
	{
		experimenter.POST("/subject", limiter, expHandler.StartSession)
		experimenter.GET("/report", resultsHandler.ShowReport)
		experimenter.GET("/report/sessions/:id", resultsHandler.ShowSession)
		experimenter.GET("/markers/stream", markersHandler.Stream)
		experimenter.POST("/markers/neural", markersHandler.NeuralMarker)
	}

	return router
}
