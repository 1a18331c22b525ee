package presenter

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sjsage522/bestpick/config"
	"sjsage522/bestpick/internal/extractor"
	"sjsage522/bestpick/logger"
	apperrors "sjsage522/bestpick/pkg/errors"
)

// Runner runs one extraction and publishes its result
type Runner interface {
	Run(ctx context.Context, target string) (*extractor.WinnerSet, error)
}

// FindDealsRequest is the body of POST /api/v1/deals
type FindDealsRequest struct {
	URL string `json:"url" form:"url" binding:"required"`
}

// FindDealsResponse is returned when an extraction succeeds
type FindDealsResponse struct {
	Products int               `json:"products"`
	Message  extractor.Message `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

const panelTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Best Pick</title>
  <style>.hidden { display: none; }</style>
</head>
<body>
  <form method="post" action="/find-deals">
    <input type="url" name="url" placeholder="Search results URL" required>
    <button id="find-deals" type="submit">Find deals</button>
  </form>
  <div id="results"{{if not .Visible}} class="hidden"{{end}}>
  {{- range .Slots}}
    <p>{{.Label}}: {{if .IsSet}}<a id="{{.ID}}" href="{{.URL}}" target="_blank">{{.Name}}</a>{{else}}<a id="{{.ID}}"></a>{{end}}</p>
  {{- end}}
  </div>
</body>
</html>`

// Server serves the panel and the trigger endpoints
type Server struct {
	cfg    *config.Config
	panel  *Panel
	runner Runner
	log    *logger.Logger
}

// NewServer creates a new presenter server
func NewServer(cfg *config.Config, panel *Panel, runner Runner) *Server {
	return &Server{
		cfg:    cfg,
		panel:  panel,
		runner: runner,
		log:    logger.ForPresenter(),
	}
}

// Router creates and configures the gin router
func (s *Server) Router() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Client IPs come from the connection; forwarded headers are not trusted
	if err := router.SetTrustedProxies(nil); err != nil {
		s.log.Warn().Err(err).Msg("Failed to reset trusted proxies")
	}

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(RequestLogger(s.log))
	router.Use(CORSMiddleware(s.cfg.AllowedOrigins))

	router.SetHTMLTemplate(template.Must(template.New("panel").Parse(panelTemplate)))

	router.GET("/", s.index)
	router.GET("/health", s.health)

	limit := RateLimit(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst)
	router.POST("/find-deals", limit, s.findDealsForm)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/deals", s.getDeals)
		v1.POST("/deals", limit, s.findDeals)
	}

	return router
}

// Run serves HTTP on the configured address until ctx is done
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.HTTPAddr).Msg("Presenter listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info().Msg("Shutting down presenter")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "panel", s.panel.State())
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "bestpick",
	})
}

func (s *Server) getDeals(c *gin.Context) {
	c.JSON(http.StatusOK, s.panel.State())
}

// findDealsForm handles the "Find deals" button
func (s *Server) findDealsForm(c *gin.Context) {
	var req FindDealsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	s.panel.Reveal()
	// Failures are logged by the runner and leave the panel as it was
	_, _ = s.runner.Run(c.Request.Context(), req.URL)

	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) findDeals(c *gin.Context) {
	var req FindDealsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error: err.Error(),
			Type:  string(apperrors.ErrorTypeValidation),
		})
		return
	}

	s.panel.Reveal()
	set, err := s.runner.Run(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(statusFor(err), errorResponse{
			Error: err.Error(),
			Type:  string(apperrors.TypeOf(err)),
		})
		return
	}

	c.JSON(http.StatusOK, FindDealsResponse{
		Products: set.Products,
		Message:  set.Message(),
	})
}

func statusFor(err error) int {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusUnprocessableEntity
	}
}
