package viz

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Producer interface {
	Name() string
	GetImage() *ImageContainer
	AddPlotOption(opt PlotOptions)
}

// Server renders registered producers while somebody is looking and serves
// the latest images over HTTP.
type Server struct {
	mu             sync.RWMutex
	producers      map[string]Producer
	images         map[string]*ImageContainer
	srv            *http.Server
	updateInterval time.Duration
	lastViewed     time.Time
	logger         zerolog.Logger
}

type ServerOption func(s *Server)

func WithServerLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func NewServer(port int, updateInterval time.Duration, opts ...ServerOption) *Server {
	s := &Server{
		producers:      make(map[string]Producer),
		images:         make(map[string]*ImageContainer),
		srv:            &http.Server{Addr: fmt.Sprintf(":%d", port)},
		updateInterval: updateInterval,
		logger:         log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.srv.Handler = s.Handler()
	return s
}

func (s *Server) Register(p Producer) {
	s.mu.Lock()
	s.producers[p.Name()] = p
	s.mu.Unlock()
}

// Render refreshes every producer's image now.
func (s *Server) Render() {
	s.mu.RLock()
	producers := make([]Producer, 0, len(s.producers))
	for _, p := range s.producers {
		producers = append(producers, p)
	}
	s.mu.RUnlock()

	var wg sync.WaitGroup
	for _, producer := range producers {
		wg.Add(1)
		go func(p Producer) {
			defer wg.Done()
			img := p.GetImage()
			if img == nil {
				return
			}
			s.mu.Lock()
			s.images[p.Name()] = img
			s.mu.Unlock()
		}(producer)
	}
	wg.Wait()
}

func (s *Server) viewed() {
	s.mu.Lock()
	s.lastViewed = time.Now()
	s.mu.Unlock()
}

func (s *Server) recentlyViewed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.lastViewed) < time.Second+s.updateInterval
}

func (s *Server) names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.producers))
	for key := range s.producers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

var indexTemplate = template.Must(template.New("index").Parse(`<html><head><title>DAB device</title>
<script type="text/javascript">
	var toggleRefresh = true;
	function toggleOn() {
		toggleRefresh = !toggleRefresh;
	}
	window.onload = function() {
		document.querySelectorAll('img').forEach(function(image) {
			setInterval(function() {
				if (toggleRefresh) {
					image.src = image.src.split("?")[0] + "?" + new Date().getTime();
				}
			}, {{.Interval}});
		});
	}
</script></head>
<body style='background-color: black'>
<button onclick="toggleOn()">Refresh?</button>
<div style="display: flex; flex-direction: row; flex-wrap: wrap">
{{range .Names}}<div><img src="/img/{{.}}" /></div>
{{end}}</div></body></html>`))

func (s *Server) Handler() http.Handler {
	handler := httprouter.New()

	handler.GET("/", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s.viewed()
		w.Header().Add("Content-Type", "text/html")
		err := indexTemplate.Execute(w, struct {
			Interval int64
			Names    []string
		}{s.updateInterval.Milliseconds(), s.names()})
		if err != nil {
			s.logger.Warn().Err(err).Msg("error writing index")
		}
	})

	handler.GET("/img/:name", func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		s.viewed()

		s.mu.RLock()
		img, ok := s.images[params.ByName("name")]
		s.mu.RUnlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Add("Content-Type", "image/png")
		w.Write(img.data)
	})

	return handler
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		tick := time.NewTicker(s.updateInterval)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				if s.recentlyViewed() {
					s.Render()
				}
			}
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn().Err(err).Msg("error shutting down viz server")
		}
	}()

	s.logger.Info().Str("addr", s.srv.Addr).Msg("viz server listening")
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
